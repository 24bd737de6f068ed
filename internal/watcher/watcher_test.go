package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	texts map[string]string
	fail  bool
}

func (r *recorder) capture(_ context.Context, path, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.texts == nil {
		r.texts = make(map[string]string)
	}
	r.texts[filepath.Base(path)] = text
	if r.fail {
		return errors.New("oracle down")
	}
	return nil
}

func (r *recorder) get(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.texts[name]
	return t, ok
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func startInbox(t *testing.T, dir string, rec *recorder) *Inbox {
	t.Helper()
	w := NewInbox(dir, rec.capture, WithDebounce(30*time.Millisecond), WithExtensions([]string{".txt"}))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	return w
}

func TestInbox_CapturesAndRenames(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startInbox(t, dir, rec)

	path := filepath.Join(dir, "memo.txt")
	require.NoError(t, os.WriteFile(path, []byte("  RDV dentiste demain 14h30\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0600))

	require.Eventually(t, func() bool { return exists(path + DoneSuffix) }, 5*time.Second, 20*time.Millisecond)
	text, ok := rec.get("memo.txt")
	require.True(t, ok)
	assert.Equal(t, "RDV dentiste demain 14h30", text)
	assert.False(t, exists(path))

	time.Sleep(100 * time.Millisecond)
	_, ok = rec.get("notes.md")
	assert.False(t, ok, "non-matching extensions are ignored")
	assert.Equal(t, 1, rec.count(), "renamed files are not captured again")
}

func TestInbox_FailedCapture(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{fail: true}
	startInbox(t, dir, rec)

	path := filepath.Join(dir, "memo.txt")
	require.NoError(t, os.WriteFile(path, []byte("appeler Marie"), 0600))
	require.Eventually(t, func() bool { return exists(path + FailedSuffix) }, 5*time.Second, 20*time.Millisecond)
}

func TestInbox_EmptyFileSkipped(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startInbox(t, dir, rec)

	path := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(path, []byte(" \n"), 0600))
	require.Eventually(t, func() bool { return exists(path + DoneSuffix) }, 5*time.Second, 20*time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestInbox_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "old.txt.done"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("texte "+name), 0600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))

	rec := &recorder{}
	w := startInbox(t, dir, rec)
	require.NoError(t, w.SyncExisting())

	require.Eventually(t, func() bool { return rec.count() == 2 }, 5*time.Second, 20*time.Millisecond)
	_, ok := rec.get("old.txt.done")
	assert.False(t, ok)
}

func TestInbox_StopDropsPending(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewInbox(dir, rec.capture, WithDebounce(time.Hour))
	require.NoError(t, w.Start(context.Background()))

	path := filepath.Join(dir, "late.txt")
	require.NoError(t, os.WriteFile(path, []byte("plus tard"), 0600))
	require.NoError(t, w.SyncExisting())
	w.Stop()
	w.Stop()

	assert.True(t, exists(path))
	assert.Zero(t, rec.count())
}

func TestInbox_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox", "drop")
	w := NewInbox(dir, (&recorder{}).capture)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, exists(dir))
	assert.Equal(t, dir, w.Dir())
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"a.txt", []string{".txt"}, true},
		{"a.TXT", []string{"txt"}, true},
		{"a.md", []string{".txt"}, false},
		{"a.txt.done", []string{".txt"}, false},
		{"a.md", nil, true},
		{"a.txt.done", nil, false},
		{"a.txt.failed", nil, false},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.exts); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.exts, got, tt.want)
		}
	}
}
