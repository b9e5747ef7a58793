package locale

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRegistryOverriddenCategories(t *testing.T) {
	r, err := NewRegistry([]string{"en", "zh", "ja"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	en, err := r.Get("en")
	if err != nil {
		t.Fatalf("Get(en): %v", err)
	}
	if diff := cmp.Diff([]string{"one", "other"}, en.PluralCategories); diff != "" {
		t.Fatalf("en categories mismatch (-want +got):\n%s", diff)
	}
	if !en.Multi() {
		t.Fatal("en should be multi-category")
	}
	if !en.WarnMissingVariableSeparator {
		t.Fatal("en should warn on missing variable separators")
	}

	zh, err := r.Get("zh")
	if err != nil {
		t.Fatalf("Get(zh): %v", err)
	}
	if diff := cmp.Diff([]string{"other"}, zh.PluralCategories); diff != "" {
		t.Fatalf("zh categories mismatch (-want +got):\n%s", diff)
	}
	if zh.Multi() {
		t.Fatal("zh should be single-category")
	}
	if zh.WarnMissingVariableSeparator {
		t.Fatal("zh should not warn on missing variable separators")
	}
}

func TestNewRegistryProbedCategories(t *testing.T) {
	r, err := NewRegistry([]string{"ru", "fr", "ar"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tests := []struct {
		code string
		want []string // categories every CLDR revision reaches on small integers
	}{
		{"ru", []string{"one", "few", "many"}},
		{"fr", []string{"one", "other"}},
		{"ar", []string{"zero", "one", "two", "few", "many", "other"}},
	}
	for _, tc := range tests {
		loc, err := r.Get(tc.code)
		if err != nil {
			t.Fatalf("Get(%s): %v", tc.code, err)
		}
		got := loc.PluralCategories
		if !isCanonicallyOrdered(got) {
			t.Fatalf("%s categories not in canonical order: %v", tc.code, got)
		}
		for _, want := range tc.want {
			if !contains(got, want) {
				t.Fatalf("%s categories = %v, missing %q", tc.code, got, want)
			}
		}
		if !loc.Multi() {
			t.Fatalf("%s should be multi-category, got %v", tc.code, got)
		}
	}
}

func TestRegistryGetMissIsError(t *testing.T) {
	r, err := NewRegistry([]string{"en"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := r.Get("de"); err == nil {
		t.Fatal("Get(de) on registry without de should fail")
	} else if !strings.Contains(err.Error(), "de") {
		t.Fatalf("error should name the missing code, got %v", err)
	}
}

func TestNewRegistryRejectsDuplicatesAndGarbage(t *testing.T) {
	if _, err := NewRegistry([]string{"en", "en"}); err == nil {
		t.Fatal("duplicate code should fail")
	}
	if _, err := NewRegistry([]string{"no!such!tag"}); err == nil {
		t.Fatal("malformed tag should fail")
	}
}

func TestCategorySetIsSortedCopy(t *testing.T) {
	r, err := NewRegistry([]string{"en"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	en, _ := r.Get("en")
	set := en.CategorySet()
	if diff := cmp.Diff([]string{"one", "other"}, set); diff != "" {
		t.Fatalf("CategorySet mismatch (-want +got):\n%s", diff)
	}
	set[0] = "mutated"
	if en.PluralCategories[0] != "one" {
		t.Fatal("CategorySet must return a copy")
	}
}

func isCanonicallyOrdered(cats []string) bool {
	rank := map[string]int{"zero": 0, "one": 1, "two": 2, "few": 3, "many": 4, "other": 5}
	for i := 1; i < len(cats); i++ {
		if rank[cats[i-1]] >= rank[cats[i]] {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
