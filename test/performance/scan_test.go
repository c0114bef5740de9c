//go:build test
// +build test

package performance

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	elftesting "github.com/isseis/elfdeps/internal/elfanalyzer/testing"
	"github.com/isseis/elfdeps/internal/scanner"
)

const strtab = "libc.so.6\x00libm.so.6\x00libpthread.so.0\x00libz.so.1\x00"

// populate writes n objects, every third one a copy of the first, so dedupe has work.
func populate(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	offsets := []uint64{0, 10, 20, 36}
	for i := range n {
		var obj []byte
		if i%3 == 0 {
			obj = elftesting.NeededObject(strtab, 0)
		} else {
			obj = elftesting.Builder{
				Strings: []byte(strtab),
				Entries: []elftesting.Entry{
					elftesting.Needed(offsets[i%len(offsets)]),
					elftesting.Needed(offsets[(i+1)%len(offsets)]),
				},
				LoadBase: uint64(0x400000 + i*0x1000),
			}.Build()
		}
		elftesting.WriteFile(t, filepath.Join(dir, fmt.Sprintf("bin%04d", i)), obj)
	}
	return dir
}

// TestScan_LargeDirectory checks that a parallel scan of a large directory gives the same
// report as the sequential one and finishes in reasonable time.
func TestScan_LargeDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	dir := populate(t, 2000)

	start := time.Now()
	seq, err := scanner.New(scanner.Options{}).Scan(context.Background(), dir)
	require.NoError(t, err)
	seqDur := time.Since(start)

	start = time.Now()
	par, err := scanner.New(scanner.Options{Jobs: runtime.NumCPU(), Dedupe: true}).Scan(context.Background(), dir)
	require.NoError(t, err)
	parDur := time.Since(start)

	t.Logf("sequential: %v, parallel+dedupe: %v", seqDur, parDur)
	assert.Equal(t, seq.Report, par.Report)
	assert.Equal(t, 2000, par.Stats.Parsed)
	assert.Positive(t, par.Stats.DedupeHits)
	assert.Less(t, seqDur, 30*time.Second)
}
