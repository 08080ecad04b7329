package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give fsnotify time to register the directory.
	time.Sleep(50 * time.Millisecond)
}

func TestNew(t *testing.T) {
	w, err := New("doc.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Path()))
	assert.Equal(t, DefaultDebounceDuration, w.debounce)

	w, err = New("doc.txt", WithDebounceDuration(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounceDuration, w.debounce)
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o600))

	var changes atomic.Int32
	w, err := New(path,
		WithDebounceDuration(100*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	)
	require.NoError(t, err)
	startWatcher(t, w)

	for i := 1; i <= 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v"+string(rune('0'+i))), 0o600))
	}

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), changes.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o600))

	var changes atomic.Int32
	w, err := New(path,
		WithDebounceDuration(20*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	)
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, changes.Load())
}

func TestWatcher_ReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o600))

	var (
		mu   sync.Mutex
		errs   []error
	)
	w, err := New(path, WithOnError(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}))
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, errs[0], ErrFileRemoved)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "doc.txt"))
	require.NoError(t, err)

	err = w.Run(context.Background())
	assert.Error(t, err)
}
