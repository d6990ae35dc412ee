package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Neumenon/cat32/cat32"
)

type benchOptions struct {
	Keys       int
	Iterations int
	CacheSize  int
	Salt       string
}

func defaultBenchOptions() benchOptions {
	return benchOptions{Keys: 10000, Iterations: 3}
}

// CaseResult is the timing of one input shape.
type CaseResult struct {
	Name      string
	Ops       int
	Elapsed   time.Duration
	OpsPerSec float64
}

// Report is everything the markdown writer needs.
type Report struct {
	Options   benchOptions
	Cases     []CaseResult
	Labels    []string
	Histogram [32]int
	ChiSquare float64
}

type benchShape struct {
	name   string
	values []*cat32.Value
}

func syntheticShapes(n int) []benchShape {
	text := make([]*cat32.Value, n)
	records := make([]*cat32.Value, n)
	maps := make([]*cat32.Value, n)
	for i := range n {
		id := int64(i)
		text[i] = cat32.Str(fmt.Sprintf("user:%d", i))
		records[i] = cat32.Record(
			cat32.F("id", cat32.Int(id)),
			cat32.F("tags", cat32.Array(cat32.Str("a"), cat32.Str("b"))),
		)
		maps[i] = cat32.MapOf(
			cat32.E(cat32.Str("id"), cat32.Int(id)),
			cat32.E(cat32.Int(id), cat32.Bool(i%2 == 0)),
		)
	}
	return []benchShape{
		{name: "text", values: text},
		{name: "record", values: records},
		{name: "map", values: maps},
	}
}

// runBench times Assign over each shape. The histogram counts the text
// shape's first pass.
func runBench(opts benchOptions) (*Report, error) {
	if opts.Keys <= 0 {
		return nil, errors.New("keys must be positive")
	}
	if opts.Iterations <= 0 {
		return nil, errors.New("iterations must be positive")
	}

	catOpts := []cat32.Option{cat32.WithCacheSize(opts.CacheSize)}
	if opts.Salt != "" {
		catOpts = append(catOpts, cat32.WithSalt(opts.Salt))
	}
	c, err := cat32.New(catOpts...)
	if err != nil {
		return nil, err
	}

	report := &Report{Options: opts, Labels: c.Labels()}
	for si, shape := range syntheticShapes(opts.Keys) {
		start := time.Now()
		for it := 0; it < opts.Iterations; it++ {
			for _, v := range shape.values {
				a, err := c.Assign(v)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", shape.name, err)
				}
				if si == 0 && it == 0 {
					report.Histogram[a.Index]++
				}
			}
		}
		elapsed := time.Since(start)
		ops := len(shape.values) * opts.Iterations

		opsPerSec := 0.0
		if elapsed > 0 {
			opsPerSec = float64(ops) / elapsed.Seconds()
		}
		report.Cases = append(report.Cases, CaseResult{
			Name:      shape.name,
			Ops:       ops,
			Elapsed:   elapsed,
			OpsPerSec: opsPerSec,
		})
	}

	report.ChiSquare = chiSquare(report.Histogram[:])
	return report, nil
}

// chiSquare against a uniform spread; 31 degrees of freedom.
func chiSquare(counts []int) float64 {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}
	expected := float64(total) / float64(len(counts))
	sum := 0.0
	for _, n := range counts {
		d := float64(n) - expected
		sum += d * d / expected
	}
	return sum
}

func writeMarkdown(w io.Writer, r *Report) {
	fmt.Fprintf(w, "# cat32 Benchmark Results\n\n")
	fmt.Fprintf(w, "**Keys:** %d  \n", r.Options.Keys)
	fmt.Fprintf(w, "**Iterations:** %d  \n", r.Options.Iterations)
	fmt.Fprintf(w, "**Cache:** %d  \n\n", r.Options.CacheSize)

	fmt.Fprintf(w, "## Throughput\n\n")
	fmt.Fprintf(w, "| Shape | Ops | Elapsed | Ops/sec |\n")
	fmt.Fprintf(w, "|-------|-----|---------|--------|\n")
	for _, c := range r.Cases {
		fmt.Fprintf(w, "| %s | %d | %s | %.0f |\n", c.Name, c.Ops, c.Elapsed.Round(time.Microsecond), c.OpsPerSec)
	}

	fmt.Fprintf(w, "\n## Distribution\n\n")
	fmt.Fprintf(w, "Chi-square: %.2f (31 degrees of freedom, 1%% critical value 52.19)\n\n", r.ChiSquare)
	fmt.Fprintf(w, "| Index | Label | Count |\n")
	fmt.Fprintf(w, "|-------|-------|-------|\n")
	for i, n := range r.Histogram {
		fmt.Fprintf(w, "| %d | %s | %d |\n", i, r.Labels[i], n)
	}

	// Busiest buckets
	order := make([]int, len(r.Histogram))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return r.Histogram[order[a]] > r.Histogram[order[b]]
	})

	fmt.Fprintf(w, "\n### Top 5 Buckets\n\n")
	fmt.Fprintf(w, "| Label | Count |\n")
	fmt.Fprintf(w, "|-------|-------|\n")
	for _, i := range order[:min(5, len(order))] {
		fmt.Fprintf(w, "| %s | %d |\n", r.Labels[i], r.Histogram[i])
	}
}
