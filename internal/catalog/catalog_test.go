package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
}

func TestFindIsCaseSensitiveFindiIsNot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Level1.nw")

	fs := New(root, true)
	fs.AddDir(".", "*.nw", false)

	if got := fs.Find("Level1.nw"); got == "" {
		t.Fatalf("Find(exact) missed")
	}
	if got := fs.Find("level1.nw"); got != "" {
		t.Fatalf("Find(wrong case) = %q, want empty (case-sensitive)", got)
	}
	if got := fs.Findi("level1.nw"); got == "" {
		t.Fatalf("Findi(wrong case) missed, want case-insensitive hit")
	}
	if got := fs.FileExistsAs("LEVEL1.NW"); got != "Level1.nw" {
		t.Fatalf("FileExistsAs() = %q, want %q", got, "Level1.nw")
	}
}

func TestResyncIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.nw")
	writeFile(t, root, "b.nw")

	fs := New(root, true)
	fs.AddDir(".", "*.nw", false)
	first := snapshot(fs)

	fs.Resync()
	second := snapshot(fs)
	fs.Resync()
	third := snapshot(fs)

	if !mapsEqual(first, second) || !mapsEqual(second, third) {
		t.Fatalf("Resync() not idempotent: %v, %v, %v", first, second, third)
	}
}

func TestAddDirOnDuplicateResyncsInsteadOfDoubleScanning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.nw")

	fs := New(root, true)
	fs.AddDir(".", "*.nw", false)
	writeFile(t, root, "b.nw")
	fs.AddDir(".", "*.nw", false) // duplicate dir -> resync, picks up b.nw

	if fs.Find("b.nw") == "" {
		t.Fatalf("duplicate AddDir should have resynced and found b.nw")
	}
}

func TestAddFileSupersedesOnSameBasename(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "dup.txt")
	writeFile(t, sub, "dup.txt")

	fs := New(root, true)
	fs.AddFile(filepath.Join(root, "dup.txt"))
	fs.AddFile(filepath.Join(sub, "dup.txt"))

	if got := fs.Find("dup.txt"); got != filepath.Join(sub, "dup.txt") {
		t.Fatalf("AddFile should supersede: got %q", got)
	}
}

func TestRemoveFileDropsEntry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gone.nw")
	fs := New(root, true)
	fs.AddDir(".", "*.nw", false)
	fs.RemoveFile("gone.nw")
	if got := fs.Find("gone.nw"); got != "" {
		t.Fatalf("RemoveFile did not remove entry, got %q", got)
	}
}

func TestRecursiveScanDoesNotDeadlock(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "top.nw")
	writeFile(t, sub, "deep.nw")

	fs := New(root, false) // nofoldersconfig=false -> recursive by default
	done := make(chan struct{})
	go func() {
		fs.AddDir(".", "*.nw", false)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("AddDir deadlocked on recursive scan")
	}
	if fs.Find("deep.nw") == "" {
		t.Fatalf("recursive scan should have found nested file")
	}
}

func snapshot(fs *FileSystem) map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make(map[string]string, len(fs.files))
	for k, v := range fs.files {
		out[k] = v
	}
	return out
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

