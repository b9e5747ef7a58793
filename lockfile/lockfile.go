// Package lockfile implements trex.lock — a lock file that records MD5
// checksums of the source exchange strings as of each locale's last
// successful pull. Comparing them against the current source tells which
// translations went stale because the source text changed underneath them.
//
// The lock file is stored at the project root as trex.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "trex.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the trex.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // locale -> key path -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// EntryContent builds the source content string for hashing. The key path
// is included so re-keying a message flags it as changed.
func EntryContent(key, sourceString string) string {
	return key + "\x00" + sourceString
}

// UpdateBatch records checksums for a locale's keys after a successful
// pull. A key is new or changed when its hash differs from the recorded
// one; FilterChanged is the reading counterpart.
func (lf *LockFile) UpdateBatch(localeCode string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[localeCode] == nil {
		lf.Checksums[localeCode] = make(map[string]string)
	}
	for key, content := range entries {
		lf.Checksums[localeCode][key] = Hash(content)
	}
}

// FilterChanged returns only the keys whose source content has changed
// since the locale's last pull. The input is a map of key -> content.
func (lf *LockFile) FilterChanged(localeCode string, entries map[string]string) map[string]string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[localeCode]
	changed := make(map[string]string)

	for key, content := range entries {
		hash := Hash(content)
		if existing == nil || existing[key] != hash {
			changed[key] = content
		}
	}

	return changed
}

// Clean removes entries that are no longer present in the current key
// set. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(localeCode string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[localeCode]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}

	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// ---------------------------------------------------------------------------
// Human-readable summary
// ---------------------------------------------------------------------------

// Summary returns a one-line description of the lock file contents,
// shown by the status command.
func (lf *LockFile) Summary() string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if len(lf.Checksums) == 0 {
		return "empty"
	}

	codes := make([]string, 0, len(lf.Checksums))
	keys := 0
	for c, m := range lf.Checksums {
		codes = append(codes, c)
		keys += len(m)
	}
	sort.Strings(codes)

	var parts []string
	for _, c := range codes {
		parts = append(parts, fmt.Sprintf("%s: %d keys", c, len(lf.Checksums[c])))
	}
	return fmt.Sprintf("%d locales, %d keys (%s)", len(codes), keys, strings.Join(parts, ", "))
}
