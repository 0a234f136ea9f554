package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "b")
	writeFile(t, filepath.Join(root, "a.XLSX"), "a")
	writeFile(t, filepath.Join(root, "nested", "c.pdf"), "c")
	writeFile(t, filepath.Join(root, "notes.txt"), "n")
	writeFile(t, filepath.Join(root, ".cache", "hidden.pdf"), "h")
	writeFile(t, filepath.Join(root, ".hidden.pdf"), "h")

	paths, err := New().List(context.Background(), root, []string{"pdf", ".xlsx"})

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.XLSX"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "nested", "c.pdf"),
	}, paths)
}

func TestList_NoExtensionsAllowsAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x.bin"), "x")

	paths, err := New().List(context.Background(), root, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "x.bin")}, paths)
}

func TestList_SingleFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.pdf")
	writeFile(t, path, "g")

	paths, err := New().List(context.Background(), path, []string{"pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths)

	paths, err = New().List(context.Background(), path, []string{"xlsx"})
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestList_MissingRoot(t *testing.T) {
	_, err := New().List(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "content")

	got, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got)

	_, err = New().Read(context.Background(), path+".missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWatch_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.pdf")
	writeFile(t, existing, "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := New().Watch(ctx, root, []string{"pdf"})
	require.NoError(t, err)

	created := filepath.Join(root, "new.pdf")
	writeFile(t, filepath.Join(root, "ignored.txt"), "skip")
	writeFile(t, created, "new")
	assert.Equal(t, domain.FileEvent{Path: created, Op: domain.FileChanged}, nextEvent(t, events, created))

	require.NoError(t, os.Remove(existing))
	assert.Equal(t, domain.FileEvent{Path: existing, Op: domain.FileRemoved}, nextEvent(t, events, existing))
}

func TestWatch_NewSubdirectory(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := New().Watch(ctx, root, []string{"pdf"})
	require.NoError(t, err)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher time to add the new directory.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(sub, "deep.pdf")
	writeFile(t, path, "deep")

	assert.Equal(t, path, nextEvent(t, events, path).Path)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := New().Watch(ctx, t.TempDir(), nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestWatch_InvalidRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.pdf")
	writeFile(t, file, "f")

	_, err := New().Watch(context.Background(), filepath.Join(dir, "missing"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = New().Watch(context.Background(), file, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// nextEvent waits for the first event on path, skipping events for other files.
func nextEvent(t *testing.T, events <-chan domain.FileEvent, path string) domain.FileEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "events channel closed")
			if ev.Path == path {
				return ev
			}
		case <-timeout:
			t.Fatalf("timeout waiting for event on %s", path)
		}
	}
}

func TestHandleFsEvent(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "doc.pdf")
	writeFile(t, file, "x")
	dir := filepath.Join(root, "dir")
	require.NoError(t, os.Mkdir(dir, 0o755))
	allowed := extensionSet([]string{"pdf"})

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		want   domain.FileEvent
		wantOK bool
	}{
		{name: "create", path: file, op: fsnotify.Create, want: domain.FileEvent{Path: file, Op: domain.FileChanged}, wantOK: true},
		{name: "write with chmod", path: file, op: fsnotify.Write | fsnotify.Chmod, want: domain.FileEvent{Path: file, Op: domain.FileChanged}, wantOK: true},
		{name: "chmod only", path: file, op: fsnotify.Chmod},
		{name: "remove", path: filepath.Join(root, "gone.pdf"), op: fsnotify.Remove, want: domain.FileEvent{Path: filepath.Join(root, "gone.pdf"), Op: domain.FileRemoved}, wantOK: true},
		{name: "rename", path: filepath.Join(root, "moved.pdf"), op: fsnotify.Rename, want: domain.FileEvent{Path: filepath.Join(root, "moved.pdf"), Op: domain.FileRemoved}, wantOK: true},
		{name: "remove disallowed extension", path: filepath.Join(root, "gone.txt"), op: fsnotify.Remove},
		{name: "directory", path: dir, op: fsnotify.Create},
		{name: "hidden", path: filepath.Join(root, ".swap.pdf"), op: fsnotify.Remove},
		{name: "vanished before stat", path: filepath.Join(root, "tmp.pdf"), op: fsnotify.Create},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := handleFsEvent(nil, root, allowed, fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{".hidden.pdf", true},
		{"file.pdf", false},
		{".", false},
		{"..", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isHidden(tt.name))
		})
	}

	assert.True(t, isHiddenBelow("/home/u/.citeqa", "/home/u/.citeqa/data/.tmp/x.pdf"))
	assert.False(t, isHiddenBelow("/home/u/.citeqa", "/home/u/.citeqa/data/x.pdf"))
}
