package cat32

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Assignment is the result of categorizing a value.
type Assignment struct {
	Index int    `json:"index"` // 0..31
	Label string `json:"label"` // labels[Index]
	Hash  string `json:"hash"`  // 8 lowercase hex digits
	Key   string `json:"key"`   // normalized canonical key
}

// MarshalJSON writes the fields in declaration order with the same string
// escaping as the canonical form, so U+2028, U+2029 and HTML characters stay
// literal.
func (a Assignment) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteString(`{"index":`)
	b.WriteString(strconv.Itoa(a.Index))
	b.WriteString(`,"label":`)
	writeQuoted(&b, a.Label)
	b.WriteString(`,"hash":`)
	writeQuoted(&b, a.Hash)
	b.WriteString(`,"key":`)
	writeQuoted(&b, a.Key)
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Categorizer assigns values to one of 32 buckets. It is immutable after
// New and safe for concurrent use.
type Categorizer struct {
	labels     []string
	saltSuffix string
	normalize  func(string) string
	overrides  map[string]int
	encoder    *Encoder
	cache      *lru.Cache[string, hashedKey]
	logger     *slog.Logger
}

// hashedKey is the memoized result for one canonical text.
type hashedKey struct {
	key  string
	hash uint32
}

// New creates a Categorizer. Every option is validated here: labels must
// number exactly 32, the normalization mode must be known, and each
// override must resolve to a bucket.
func New(opts ...Option) (*Categorizer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.labels) != 32 {
		return nil, configError("labels length must be 32, got %d", len(cfg.labels))
	}
	form, ok := cfg.normalize.form()
	if !ok {
		return nil, configError(`normalize must be one of "none", "nfc", "nfd", "nfkc", or "nfkd", got %q`, string(cfg.normalize))
	}
	if cfg.cacheSize < 0 {
		return nil, configError("cache size must not be negative, got %d", cfg.cacheSize)
	}

	c := &Categorizer{
		labels:     cfg.labels,
		saltSuffix: saltSuffix(cfg),
		normalize:  form,
		overrides:  make(map[string]int, len(cfg.overrides)),
		encoder:    NewEncoder(cfg.registry),
		logger:     cfg.logger,
	}

	keys := make([]string, 0, len(cfg.overrides))
	for k := range cfg.overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		idx, err := cfg.overrides[k].resolve(c.labels)
		if err != nil {
			if ce, ok := err.(*Error); ok {
				ce.Context = map[string]any{"key": k}
			}
			return nil, err
		}
		c.overrides[c.normalizeKey(k)] = idx
	}

	if cfg.cacheSize > 0 {
		cache, err := lru.New[string, hashedKey](cfg.cacheSize)
		if err != nil {
			return nil, configError("cache: %v", err)
		}
		c.cache = cache
	}

	c.logger.Debug("categorizer ready",
		"overrides", len(c.overrides),
		"cache_size", cfg.cacheSize,
		"salted", c.saltSuffix != "")
	return c, nil
}

// saltSuffix returns the text appended to keys before hashing:
//
//	no salt, no namespace   ""
//	salt only               |salt:<salt>
//	namespace set           |saltns:["<salt>","<namespace>"]
func saltSuffix(cfg *config) string {
	switch {
	case cfg.hasNamespace:
		return "|saltns:[" + quoteJSON(cfg.salt) + "," + quoteJSON(cfg.namespace) + "]"
	case cfg.salt != "":
		return "|salt:" + cfg.salt
	default:
		return ""
	}
}

// Assign canonicalizes v and returns its bucket. A pinned key takes the
// override's index; the hash is always computed.
func (c *Categorizer) Assign(v *Value) (Assignment, error) {
	canonical, err := c.encoder.Encode(v)
	if err != nil {
		return Assignment{}, err
	}
	return c.assignCanonical(canonical), nil
}

// AssignText is shorthand for Assign(Str(s)).
func (c *Categorizer) AssignText(s string) (Assignment, error) {
	return c.Assign(Str(s))
}

// Index returns the bucket index of v.
func (c *Categorizer) Index(v *Value) (int, error) {
	a, err := c.Assign(v)
	if err != nil {
		return 0, err
	}
	return a.Index, nil
}

// LabelOf returns the bucket label of v.
func (c *Categorizer) LabelOf(v *Value) (string, error) {
	a, err := c.Assign(v)
	if err != nil {
		return "", err
	}
	return a.Label, nil
}

// Labels returns a copy of the bucket labels.
func (c *Categorizer) Labels() []string {
	return slices.Clone(c.labels)
}

// SaltedKey returns key with the salt and namespace applied, which is the
// text that gets hashed.
func (c *Categorizer) SaltedKey(key string) string {
	return key + c.saltSuffix
}

func (c *Categorizer) assignCanonical(canonical string) Assignment {
	hk, ok := c.lookup(canonical)
	if !ok {
		key := c.normalizeKey(canonical)
		hk = hashedKey{key: key, hash: Sum32(c.SaltedKey(key))}
		if c.cache != nil {
			c.cache.Add(canonical, hk)
		}
	}

	index := int(hk.hash & 31)
	pinned, isPinned := c.overrides[hk.key]
	if isPinned {
		index = pinned
	}

	a := Assignment{
		Index: index,
		Label: c.labels[index],
		Hash:  HexHash(hk.hash),
		Key:   hk.key,
	}
	c.logger.Debug("assigned",
		"index", a.Index,
		"label", a.Label,
		"hash", a.Hash,
		"pinned", isPinned,
		"cached", ok)
	return a
}

func (c *Categorizer) lookup(canonical string) (hashedKey, bool) {
	if c.cache == nil {
		return hashedKey{}, false
	}
	return c.cache.Get(canonical)
}

func (c *Categorizer) normalizeKey(key string) string {
	if c.normalize == nil {
		return key
	}
	return c.normalize(key)
}
