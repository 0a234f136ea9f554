package logger

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// capture redirects output to a buffer for the duration of the test.
func capture(t *testing.T, isVerbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	SetVerbose(isVerbose)
	t.Cleanup(func() {
		SetOutput(prev)
		SetVerbose(false)
		SetTimestamps(false)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestVerboseLevels(t *testing.T) {
	buf := capture(t, true)

	Section("Ingest")
	Debug("loaded %s", "a.pdf")
	Info("stored %d chunks", 3)

	assert.Equal(t, "\n=== Ingest ===\n[DEBUG] loaded a.pdf\n[INFO] stored 3 chunks\n", buf.String())
}

func TestQuietSuppressesVerboseLevels(t *testing.T) {
	buf := capture(t, false)

	Section("Ingest")
	Debug("hidden")
	Info("hidden")
	Warn("skipped %s", "dup.pdf")
	Error("failed")

	assert.Equal(t, "[WARN] skipped dup.pdf\n[ERROR] failed\n", buf.String())
}

func TestTimestamps(t *testing.T) {
	buf := capture(t, false)
	prevNow := now
	now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prevNow })
	SetTimestamps(true)

	Warn("watch event")

	assert.Equal(t, "2024-05-01T09:30:00Z [WARN] watch event\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Debug("concurrent %d", i)
			Warn("concurrent %d", i)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, bytes.Count(buf.Bytes(), []byte("\n")))
}
