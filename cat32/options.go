package cat32

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Option is a functional option for configuring a Categorizer.
type Option func(*config)

type config struct {
	salt         string
	namespace    string
	hasNamespace bool
	labels       []string
	normalize    NormalizeMode
	overrides    map[string]Override
	logger       *slog.Logger
	cacheSize    int
	registry     *Registry
}

func defaultConfig() *config {
	return &config{
		labels:    DefaultLabels(),
		normalize: NormalizeNFKC,
		overrides: make(map[string]Override),
		logger:    slog.New(slog.DiscardHandler),
	}
}

// WithSalt sets the salt appended to every key before hashing.
//
// Example:
//
//	cat32.New(cat32.WithSalt("projectX"))
func WithSalt(salt string) Option {
	return func(c *config) {
		c.salt = salt
	}
}

// WithNamespace sets the namespace. An empty namespace still counts as set
// and changes the salted key.
func WithNamespace(namespace string) Option {
	return func(c *config) {
		c.namespace = namespace
		c.hasNamespace = true
	}
}

// WithLabels replaces the 32 bucket labels. Any other length is rejected
// by New.
func WithLabels(labels []string) Option {
	return func(c *config) {
		c.labels = append([]string(nil), labels...)
	}
}

// WithNormalize selects the Unicode normalization applied to canonical keys.
func WithNormalize(mode NormalizeMode) Option {
	return func(c *config) {
		c.normalize = mode
	}
}

// WithOverride pins the canonical key to a bucket. The key is normalized
// the same way assigned keys are.
func WithOverride(key string, o Override) Option {
	return func(c *config) {
		c.overrides[key] = o
	}
}

// WithOverrides pins several canonical keys at once.
func WithOverrides(overrides map[string]Override) Option {
	return func(c *config) {
		for k, o := range overrides {
			c.overrides[k] = o
		}
	}
}

// WithLogger sets the logger. Assignments are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheSize enables an LRU memo of canonical text to normalized key and
// hash. Zero disables it.
func WithCacheSize(n int) Option {
	return func(c *config) {
		c.cacheSize = n
	}
}

// WithRegistry sets the registry used to resolve local symbols.
func WithRegistry(r *Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// DefaultLabels returns A..Z followed by 0..5.
func DefaultLabels() []string {
	labels := make([]string, 0, 32)
	for c := 'A'; c <= 'Z'; c++ {
		labels = append(labels, string(c))
	}
	for c := '0'; c <= '5'; c++ {
		labels = append(labels, string(c))
	}
	return labels
}

// ============================================================
// Normalization
// ============================================================

// NormalizeMode names a Unicode normalization form.
type NormalizeMode string

const (
	NormalizeNone NormalizeMode = "none"
	NormalizeNFC  NormalizeMode = "nfc"
	NormalizeNFD  NormalizeMode = "nfd"
	NormalizeNFKC NormalizeMode = "nfkc"
	NormalizeNFKD NormalizeMode = "nfkd"
)

// ParseNormalizeMode parses a mode name, case-insensitively.
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	mode := NormalizeMode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := mode.form(); !ok {
		return "", configError(`normalize must be one of "none", "nfc", "nfd", "nfkc", or "nfkd", got %q`, s)
	}
	return mode, nil
}

// form returns the normalizer for the mode; nil means identity.
func (m NormalizeMode) form() (func(string) string, bool) {
	switch m {
	case NormalizeNone:
		return nil, true
	case NormalizeNFC:
		return norm.NFC.String, true
	case NormalizeNFD:
		return norm.NFD.String, true
	case NormalizeNFKC:
		return norm.NFKC.String, true
	case NormalizeNFKD:
		return norm.NFKD.String, true
	default:
		return nil, false
	}
}

// ============================================================
// Overrides
// ============================================================

type overrideKind uint8

const (
	overrideIndex overrideKind = iota
	overrideNumber
	overrideLabel
)

// Override pins a canonical key to a bucket, either by index or by label.
type Override struct {
	kind   overrideKind
	index  int
	number float64
	label  string
}

// PinIndex pins to a bucket index. New rejects indexes outside 0..31.
func PinIndex(i int) Override {
	return Override{kind: overrideIndex, index: i}
}

// PinNumber pins to a bucket index given as a number, as it arrives from
// JSON or YAML. New rejects anything but a finite integer in 0..31.
func PinNumber(f float64) Override {
	return Override{kind: overrideNumber, number: f}
}

// PinLabel pins to the bucket carrying label. New rejects unknown labels.
func PinLabel(label string) Override {
	return Override{kind: overrideLabel, label: label}
}

// Label returns the pinned label, if the override pins by label.
func (o Override) Label() (string, bool) {
	return o.label, o.kind == overrideLabel
}

// Index returns the pinned index, if the override pins by index.
func (o Override) Index() (float64, bool) {
	switch o.kind {
	case overrideIndex:
		return float64(o.index), true
	case overrideNumber:
		return o.number, true
	}
	return 0, false
}

// String returns the index or the quoted label.
func (o Override) String() string {
	switch o.kind {
	case overrideIndex:
		return strconv.Itoa(o.index)
	case overrideNumber:
		return formatNumber(o.number)
	default:
		return strconv.Quote(o.label)
	}
}

// resolve returns the bucket index the override pins to.
func (o Override) resolve(labels []string) (int, error) {
	switch o.kind {
	case overrideIndex:
		if o.index < 0 || o.index > 31 {
			return 0, rangeError(float64(o.index))
		}
		return o.index, nil
	case overrideNumber:
		n := o.number
		if !isFiniteNumber(n) || n != math.Trunc(n) || n < 0 || n > 31 {
			return 0, rangeError(n)
		}
		return int(n), nil
	case overrideLabel:
		for i, l := range labels {
			if l == o.label {
				return i, nil
			}
		}
		return 0, configError("override label %q not in labels", o.label)
	default:
		return 0, configError("unknown override kind %d", o.kind)
	}
}
