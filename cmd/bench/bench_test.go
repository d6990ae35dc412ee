package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBench(t *testing.T) {
	report, err := runBench(benchOptions{Keys: 320, Iterations: 2, CacheSize: 16})
	require.NoError(t, err)

	require.Len(t, report.Cases, 3)
	for _, c := range report.Cases {
		assert.Equal(t, 640, c.Ops, c.Name)
	}

	total := 0
	for _, n := range report.Histogram {
		total += n
	}
	assert.Equal(t, 320, total)
	assert.Len(t, report.Labels, 32)
}

func TestRunBenchDeterministicHistogram(t *testing.T) {
	a, err := runBench(benchOptions{Keys: 100, Iterations: 1, Salt: "s"})
	require.NoError(t, err)
	b, err := runBench(benchOptions{Keys: 100, Iterations: 1, Salt: "s"})
	require.NoError(t, err)
	assert.Equal(t, a.Histogram, b.Histogram)
}

func TestRunBenchValidation(t *testing.T) {
	tests := []struct {
		name string
		opts benchOptions
	}{
		{"zero keys", benchOptions{Keys: 0, Iterations: 1}},
		{"zero iterations", benchOptions{Keys: 1, Iterations: 0}},
		{"negative cache", benchOptions{Keys: 1, Iterations: 1, CacheSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runBench(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestChiSquare(t *testing.T) {
	uniform := make([]int, 32)
	for i := range uniform {
		uniform[i] = 10
	}
	assert.Equal(t, 0.0, chiSquare(uniform))
	assert.Equal(t, 0.0, chiSquare(make([]int, 32)))

	skewed := make([]int, 32)
	skewed[0] = 32
	assert.InDelta(t, 992.0, chiSquare(skewed), 1e-9)
}

func TestBenchCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := filepath.Join(t.TempDir(), "bench.md")

	cmd := newBenchCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--keys", "64", "--iterations", "1", "--out", out})
	require.NoError(t, cmd.Execute())

	report := stdout.String()
	assert.True(t, strings.HasPrefix(report, "# cat32 Benchmark Results"))
	assert.Contains(t, report, "| text | 64 |")
	assert.Contains(t, report, "### Top 5 Buckets")
	assert.Contains(t, stderr.String(), "Markdown written to")

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, report, string(written))
}

func TestBenchCommandRejectsArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newBenchCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
