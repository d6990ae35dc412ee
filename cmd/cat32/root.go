package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Neumenon/cat32/cat32"
	"github.com/Neumenon/cat32/config"
	"github.com/Neumenon/cat32/overrides"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitViolation = 2
)

var red = color.New(color.FgRed, color.Bold)

// usageError marks bad flags and flag values.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type cliOptions struct {
	salt       string
	namespace  string
	normalize  string
	jsonMode   string
	pretty     bool
	configPath string
	redisURL   string
	redisKey   string
	verbose    bool
}

// run executes the command line and returns the exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, interactive bool) int {
	cmd := newRootCmd(stdin, stdout, stderr, interactive)
	cmd.SetArgs(rewriteJSONFlag(args))

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		red.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	var ue *usageError
	if errors.As(err, &ue) || cat32.IsInvalidInput(err) {
		return exitViolation
	}
	return exitFailure
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer, interactive bool) *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "cat32 [flags] [input...]",
		Short: "Assign input text to one of 32 deterministic buckets",
		Long: `cat32 hashes its input with FNV-1a and prints the bucket as JSON:

  {"index":30,"label":"4","hash":"79b63dfe","key":"\"hello\""}

Positional arguments are joined with spaces; everything after -- is input.
Without arguments, stdin is read: a pipe as one record, a terminal line by line.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.execute(cmd, args, stdin, stdout, stderr, interactive)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.salt, "salt", "", "salt mixed into every key")
	flags.StringVar(&opts.namespace, "namespace", "", "namespace mixed into every key")
	flags.StringVar(&opts.normalize, "normalize", string(cat32.NormalizeNFKC), "unicode normalization: none, nfc, nfd, nfkc, nfkd")
	flags.StringVar(&opts.jsonMode, "json", "compact", "output format: compact or pretty")
	flags.Lookup("json").NoOptDefVal = "compact"
	flags.BoolVar(&opts.pretty, "pretty", false, "shorthand for --json=pretty")
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.redisURL, "redis-url", "", "load overrides from this Redis server")
	flags.StringVar(&opts.redisKey, "redis-key", "", "hash holding the overrides (default \""+overrides.DefaultKey+"\")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	return cmd
}

func (o *cliOptions) execute(cmd *cobra.Command, args []string, stdin io.Reader, stdout, stderr io.Writer, interactive bool) error {
	pretty := o.pretty
	switch o.jsonMode {
	case "compact":
	case "pretty":
		pretty = true
	default:
		return &usageError{err: fmt.Errorf(`--json must be "compact" or "pretty", got %q`, o.jsonMode)}
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c, err := o.categorizer(cmd, logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	emit := func(text string) error {
		a, err := c.AssignText(text)
		if err != nil {
			return err
		}
		return enc.Encode(a)
	}

	switch {
	case len(args) > 0:
		return emit(strings.Join(args, " "))
	case interactive:
		return eachLine(stdin, emit)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return emit(trimNewline(string(data)))
	}
}

// categorizer layers the config file, Redis overrides and flags, in that
// order. A namespace is always set, empty when nothing names one.
func (o *cliOptions) categorizer(cmd *cobra.Command, logger *slog.Logger) (*cat32.Categorizer, error) {
	var opts []cat32.Option
	flags := cmd.Flags()

	namespaceSet := false
	redisURL, redisKey := o.redisURL, o.redisKey
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cfg.Options()...)
		namespaceSet = cfg.Namespace != nil
		if cfg.Redis != nil {
			if redisURL == "" {
				redisURL = cfg.Redis.URL
			}
			if redisKey == "" {
				redisKey = cfg.Redis.Key
			}
		}
	}

	if redisURL != "" {
		store, err := overrides.NewRedisStore(overrides.RedisOptions{
			URL:    redisURL,
			Key:    redisKey,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		defer store.Close()

		opt, err := store.Option(cmd.Context())
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}

	if flags.Changed("salt") {
		opts = append(opts, cat32.WithSalt(o.salt))
	}
	if flags.Changed("namespace") || !namespaceSet {
		opts = append(opts, cat32.WithNamespace(o.namespace))
	}
	if flags.Changed("normalize") {
		mode, err := cat32.ParseNormalizeMode(o.normalize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cat32.WithNormalize(mode))
	}
	opts = append(opts, cat32.WithLogger(logger))

	return cat32.New(opts...)
}

// eachLine calls fn for every line of r, without its line terminator.
func eachLine(r io.Reader, fn func(string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := fn(trimNewline(line)); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}
}

// trimNewline drops one trailing "\r\n" or "\n".
func trimNewline(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}

// rewriteJSONFlag turns "--json pretty" into "--json=pretty". --json takes
// an optional value, so the flag parser would otherwise read "pretty" as
// input.
func rewriteJSONFlag(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return append(out, args[i:]...)
		}
		if a == "--json" && i+1 < len(args) && (args[i+1] == "compact" || args[i+1] == "pretty") {
			out = append(out, "--json="+args[i+1])
			i++
			continue
		}
		out = append(out, a)
	}
	return out
}
