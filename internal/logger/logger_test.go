package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())
	assert.True(t, Enabled(LevelWarn))
	assert.False(t, Enabled(LevelInfo))

	SetVerbose(true)
	assert.True(t, IsVerbose())
	assert.True(t, Enabled(LevelInfo))

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func()
		want    string
	}{
		{"debug verbose", true, func() { Debug("retrieved %d of %d", 3, 9) }, "[DEBUG] retrieved 3 of 9\n"},
		{"debug quiet", false, func() { Debug("retrieved") }, ""},
		{"info verbose", true, func() { Info("indexed %d records", 42) }, "[INFO] indexed 42 records\n"},
		{"info quiet", false, func() { Info("hidden") }, ""},
		{"section verbose", true, func() { Section("Retrieval") }, "\n=== Retrieval ===\n"},
		{"section quiet", false, func() { Section("Retrieval") }, ""},
		{"warn quiet", false, func() { Warn("index built with %s", "nomic-embed-text") }, "[WARN] index built with nomic-embed-text\n"},
		{"error quiet", false, func() { Error("rebuild failed: %v", "boom") }, "[ERROR] rebuild failed: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
		}()
	}
	wg.Wait()
}
