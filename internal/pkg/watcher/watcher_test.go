//go:build unit

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string, onChange func()) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(path, onChange).WithDebounce(20 * time.Millisecond).Watch(ctx)
	}()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	}
}

func TestWatcher_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loggers.yml")
	require.NoError(t, os.WriteFile(path, []byte("loggers: {}\n"), 0644))

	t.Run("WriteTriggersOnce", func(t *testing.T) {
		var calls int32
		stop := startWatcher(t, path, func() { atomic.AddInt32(&calls, 1) })
		defer stop()

		for i := 0; i < 3; i++ {
			require.NoError(t, os.WriteFile(path, []byte("loggers: {}\n"), 0644))
		}

		assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("OtherFilesIgnored", func(t *testing.T) {
		var calls int32
		stop := startWatcher(t, path, func() { atomic.AddInt32(&calls, 1) })
		defer stop()

		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x"), 0644))
		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})
}

func TestWatcher_MissingDirectory(t *testing.T) {
	err := New("/nonexistent/dir/loggers.yml", func() {}).Watch(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}
