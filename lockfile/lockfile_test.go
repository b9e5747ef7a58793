package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.UpdateBatch("ru", map[string]string{
		"home.title": "Welcome",
		"home.body":  "Hello {name}",
	})
	lf.UpdateBatch("de", map[string]string{
		"home.title": "Welcome",
	})

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Verify file exists
	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	// Reload and verify
	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	if len(lf2.Checksums) != 2 {
		t.Errorf("locales = %d, want 2", len(lf2.Checksums))
	}
	if len(lf2.Checksums["ru"]) != 2 {
		t.Errorf("ru keys = %d, want 2", len(lf2.Checksums["ru"]))
	}
}

func TestFilterChanged(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	lf.UpdateBatch("ru", map[string]string{
		"home.title": "Welcome",
		"home.body":  "Hello {name}",
	})

	entries := map[string]string{
		"home.title": "Welcome",      // unchanged
		"home.body":  "Hello {user}", // changed
		"home.cta":   "Get started",  // new
	}

	changed := lf.FilterChanged("ru", entries)

	if len(changed) != 2 {
		t.Errorf("changed count = %d, want 2", len(changed))
	}
	if _, ok := changed["home.title"]; ok {
		t.Error("home.title should not be in changed set")
	}
	if _, ok := changed["home.body"]; !ok {
		t.Error("home.body should be in changed set")
	}
	if _, ok := changed["home.cta"]; !ok {
		t.Error("home.cta should be in changed set")
	}
}

func TestFilterChangedUnknownLocale(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	entries := map[string]string{"home.title": "Welcome"}
	changed := lf.FilterChanged("de", entries)
	if len(changed) != 1 {
		t.Errorf("changed count = %d, want 1: every key of an unlocked locale is changed", len(changed))
	}
}

func TestUpdateBatch(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	entries := map[string]string{
		"home.title": "Welcome",
		"home.body":  "Hello {name}",
	}
	lf.UpdateBatch("ru", entries)

	if changed := lf.FilterChanged("ru", entries); len(changed) != 0 {
		t.Errorf("changed after batch update = %v, want none", changed)
	}
}

func TestClean(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	lf.UpdateBatch("ru", map[string]string{
		"home.title": "Welcome",
		"home.body":  "Hello {name}",
		"home.gone":  "Removed",
	})

	// Only title and body remain in current set
	lf.Clean("ru", []string{"home.title", "home.body"})

	if _, ok := lf.Checksums["ru"]["home.title"]; !ok {
		t.Error("home.title should still be tracked")
	}
	if _, ok := lf.Checksums["ru"]["home.gone"]; ok {
		t.Error("home.gone should be removed by Clean")
	}
}

func TestEntryContent(t *testing.T) {
	c1 := EntryContent("home.title", "Welcome")
	c2 := EntryContent("home.title", "Welcome back")
	c3 := EntryContent("home.header", "Welcome")
	if c1 == c2 {
		t.Error("different values should produce different content")
	}
	if c1 == c3 {
		t.Error("different keys should produce different content")
	}
}

func TestSummary(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	if lf.Summary() != "empty" {
		t.Errorf("empty summary = %q, want %q", lf.Summary(), "empty")
	}

	lf.UpdateBatch("ru", map[string]string{"home.title": "Welcome"})
	lf.UpdateBatch("de", map[string]string{"home.title": "Welcome"})

	want := "2 locales, 2 keys (de: 1 keys, ru: 1 keys)"
	if got := lf.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			key := fmt.Sprintf("key%d", n)
			lf.UpdateBatch("ru", map[string]string{key: "value"})
			lf.FilterChanged("ru", map[string]string{key: "value"})
			lf.Summary()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if keys := len(lf.Checksums["ru"]); keys != 10 {
		t.Errorf("keys after concurrent writes = %d, want 10", keys)
	}
}
