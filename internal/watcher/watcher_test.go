package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) has(suffix string) bool {
	for _, p := range r.snapshot() {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, roots, exts []string, onFile, onRemove func(string), opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithDebounce(50 * time.Millisecond)}, opts...)
	w := NewWatcher(roots, exts, true, onFile, onRemove, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, nil, []string{".txt"}, nil, nil)

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}
	var got recorder
	startWatcher(t, []string{dir}, []string{".txt"}, got.add, nil)

	fPath := filepath.Join(sub, "f.txt")
	for i := 0; i < 3; i++ {
		if err := writeFile(fPath, strings.Repeat("hello ", i+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(sub, "skip.bin"), "x"); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return got.has("f.txt") }) {
		t.Fatalf("expected f.txt to be reported, got %v", got.snapshot())
	}
	time.Sleep(150 * time.Millisecond)
	n := 0
	for _, p := range got.snapshot() {
		if strings.HasSuffix(p, "f.txt") {
			n++
		}
		if strings.HasSuffix(p, "skip.bin") {
			t.Error("skip.bin should not be reported")
		}
	}
	if n != 1 {
		t.Errorf("three quick writes should be reported once, got %d", n)
	}
}

func TestWatcher_Ignore(t *testing.T) {
	dir := t.TempDir()
	var got recorder
	startWatcher(t, []string{dir}, []string{".txt"}, got.add, nil,
		WithIgnore(func(p string) bool { return strings.HasSuffix(p, ".summary.txt") }))

	if err := writeFile(filepath.Join(dir, "report.summary.txt"), "generated"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "report.txt"), "source"); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return got.has("report.txt") }) {
		t.Fatalf("report.txt not reported: %v", got.snapshot())
	}
	if got.has("report.summary.txt") {
		t.Error("ignored file was reported")
	}
}

func TestWatcher_Remove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.md")
	if err := writeFile(path, "bye"); err != nil {
		t.Fatal(err)
	}
	var removed recorder
	startWatcher(t, []string{dir}, []string{".md"}, nil, removed.add)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return removed.has("gone.md") }) {
		t.Errorf("remove not reported: %v", removed.snapshot())
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.pdf", []string{"pdf"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}
	var got recorder
	w := startWatcher(t, []string{dir}, []string{".txt"}, got.add, nil)
	w.SyncExistingFiles()

	paths := got.snapshot()
	if len(paths) != 1 || !strings.HasSuffix(paths[0], "a.txt") {
		t.Errorf("expected one reported file a.txt, got %v", paths)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	startWatcher(t, []string{root}, []string{".txt"}, nil, nil)
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_NewDirectory_reportsNestedFiles(t *testing.T) {
	dir := t.TempDir()
	var got recorder
	startWatcher(t, []string{dir}, []string{".txt", ".md"}, got.add, nil)

	nested := filepath.Join(dir, "level1", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directories.
	time.Sleep(100 * time.Millisecond)
	if err := writeFile(filepath.Join(nested, "deep.txt"), "deep content"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "level1", "doc.md"), "world"); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return got.has("deep.txt") && got.has("doc.md") }) {
		t.Errorf("expected deep.txt and doc.md to be reported, got %v", got.snapshot())
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
