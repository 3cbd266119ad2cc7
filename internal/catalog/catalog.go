// Package catalog implements the shared file catalogue (C2): a
// logical-filename -> on-disk-path index built from wildcard directory
// scans, with manual resync. Ported from CFileSystem.cpp's semantics:
// basename-only keys, linear-scan case-insensitive lookups, and
// zero-value fallbacks on miss rather than errors.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// dirEntry is one scanned directory root plus the wildcard it was added
// with and whether it recurses into subdirectories.
type dirEntry struct {
	path      string
	wildcard  string
	recursive bool
}

// FileSystem is the C2 catalogue. All public methods lock once; internal
// helpers (scanDirLocked, resyncLocked) assume the lock is already held, mirroring
// the original's single recursive_mutex without needing Go's re-entrant
// workaround — the lock is only ever taken at the public-API boundary.
type FileSystem struct {
	mu   sync.Mutex
	root string // server path every dirEntry and fileList value is rooted under

	dirs  []dirEntry
	files map[string]string // basename -> absolute path

	// noFoldersConfig mirrors the "nofoldersconfig" setting: when true,
	// directory scans never recurse into subdirectories unless addDir
	// was called with forceRecursive.
	noFoldersConfig bool
}

// New creates an empty catalogue rooted at root (the server's base path,
// analogous to TServer::getServerPath()).
func New(root string, noFoldersConfig bool) *FileSystem {
	return &FileSystem{
		root:            root,
		files:           make(map[string]string),
		noFoldersConfig: noFoldersConfig,
	}
}

// AddDir registers dir (relative to root) with wildcard, scanning it
// immediately. If dir is already registered with the same wildcard, the
// whole catalogue is resynced instead — matching addDir's "already exists?
// resync" behavior.
func (fs *FileSystem) AddDir(dir, wildcard string, forceRecursive bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	norm := normalizeDir(dir)
	for _, d := range fs.dirs {
		if d.path == norm && d.wildcard == wildcard {
			fs.resyncLocked()
			return
		}
	}

	recursive := forceRecursive || !fs.noFoldersConfig
	entry := dirEntry{path: norm, wildcard: wildcard, recursive: recursive}
	fs.dirs = append(fs.dirs, entry)
	fs.scanDirLocked(entry)
}

// AddFile inserts a single file directly, keyed by its basename (no
// directory walk). Mirrors addFile: the path is taken as given, relative
// to root if it falls under root, absolute otherwise.
func (fs *FileSystem) AddFile(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.ToSlash(path)
	base := filepath.Base(path)
	fs.files[base] = fs.resolveLocked(path)
}

// RemoveFile drops a file from the catalogue by its basename.
func (fs *FileSystem) RemoveFile(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	base := filepath.Base(filepath.ToSlash(path))
	delete(fs.files, base)
}

// Resync clears the file list and rescans every registered directory.
func (fs *FileSystem) Resync() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.resyncLocked()
}

func (fs *FileSystem) resyncLocked() {
	fs.files = make(map[string]string)
	for _, d := range fs.dirs {
		fs.scanDirLocked(d)
	}
}

// Find does an exact-key (basename) lookup, returning "" on miss — the
// catalogue never errors on a missing file, callers test the empty string.
func (fs *FileSystem) Find(name string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.files[name]
}

// Findi is a case-insensitive lookup. It's a linear scan over the whole
// map, same as the original's comparei loop — there is no secondary
// lowercase index, so this stays O(n) in the file count by design.
func (fs *FileSystem) Findi(name string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for k, v := range fs.files {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// FileExistsAs returns the catalogue's on-file basename that
// case-insensitively matches name, or "" if none does.
func (fs *FileSystem) FileExistsAs(name string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for k := range fs.files {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return ""
}

// Load resolves name through Find and reads its contents, returning nil on
// a miss rather than an error (matches CFileSystem::load returning an
// empty CString when the file isn't catalogued).
func (fs *FileSystem) Load(name string) []byte {
	path := fs.Find(name)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// GetModTime returns the file's modification time, or the zero Time if the
// file isn't catalogued or stat fails.
func (fs *FileSystem) GetModTime(name string) time.Time {
	path := fs.Find(name)
	if path == "" {
		return time.Time{}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// SetModTime updates the file's mtime (and atime, to match utime's
// both-or-neither semantics), reporting whether it succeeded.
func (fs *FileSystem) SetModTime(name string, modTime time.Time) bool {
	path := fs.Find(name)
	if path == "" {
		return false
	}
	return os.Chtimes(path, modTime, modTime) == nil
}

// GetFileSize returns the file's size, or 0 on a miss or stat failure.
func (fs *FileSystem) GetFileSize(name string) int64 {
	path := fs.Find(name)
	if path == "" {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// scanDirLocked walks one directory entry, adding matching files to the
// catalogue and recursing into subdirectories when the entry is recursive
// — structurally mirroring loadAllDirectories' non-Windows branch.
func (fs *FileSystem) scanDirLocked(d dirEntry) {
	abs := fs.resolveLocked(d.path)
	entries, err := os.ReadDir(abs)
	if err != nil {
		return
	}
	for _, ent := range entries {
		name := ent.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if ent.IsDir() {
			if d.recursive {
				sub := dirEntry{path: d.path + name + "/", wildcard: d.wildcard, recursive: true}
				fs.dirs = append(fs.dirs, sub)
				fs.scanDirLocked(sub)
			}
			continue
		}
		matched, err := filepath.Match(d.wildcard, name)
		if err != nil || !matched {
			continue
		}
		fs.files[name] = filepath.Join(abs, name)
	}
}

// resolveLocked joins a catalogue-relative path against root, or returns
// it unchanged if it's already absolute.
func (fs *FileSystem) resolveLocked(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fs.root, path)
}

// manifestFile is the shape of the YAML directory manifest (§10.3, §11):
// the catalogue's initial dirList, loaded the same way the teacher's
// internal/data tables load their YAML sources.
type manifestFile struct {
	Dirs []struct {
		Path      string `yaml:"path"`
		Wildcard  string `yaml:"wildcard"`
		Recursive bool   `yaml:"recursive"`
	} `yaml:"dirs"`
}

// LoadManifest reads a YAML directory manifest and calls AddDir for every
// entry, in file order — the catalogue's initial population path.
func (fs *FileSystem) LoadManifest(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: read manifest %s: %w", path, err)
	}
	var f manifestFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("catalog: parse manifest %s: %w", path, err)
	}
	for _, d := range f.Dirs {
		wildcard := d.Wildcard
		if wildcard == "" {
			wildcard = "*"
		}
		fs.AddDir(d.Path, wildcard, d.Recursive)
	}
	return nil
}

func normalizeDir(dir string) string {
	dir = filepath.ToSlash(dir)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir
}
