// Package locale provides the static per-locale metadata registry
// consulted by the conversion engine: the plural category set a locale's
// messages must cover, and whether the stylistic variable-separator
// warning applies to it.
//
// Categories come from two sources, merged once at registry construction:
// explicit per-locale overrides below, and the CLDR cardinal plural rules
// shipped with golang.org/x/text for every locale not overridden.
package locale

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// Locale holds the registry metadata for one locale code.
// Values are built once by NewRegistry and never mutated afterwards.
type Locale struct {
	// Code is the locale code as registered (e.g. "en", "pt-BR").
	Code string
	// Name is the language's native display name, used in CLI output.
	Name string
	// PluralCategories is the ordered set of CLDR plural category names
	// ("zero", "one", "two", "few", "many", "other") this locale's
	// pluralized messages must provide, in canonical CLDR order.
	PluralCategories []string
	// WarnMissingVariableSeparator enables the stylistic warning for
	// variable tokens glued to surrounding words. Disabled for scripts
	// written without word separators.
	WarnMissingVariableSeparator bool
}

// Multi reports whether the locale distinguishes more than one plural category.
func (l *Locale) Multi() bool {
	return len(l.PluralCategories) > 1
}

// CategorySet returns the plural categories as a sorted list,
// the form used for set comparison against parsed exchange strings.
func (l *Locale) CategorySet() []string {
	set := make([]string, len(l.PluralCategories))
	copy(set, l.PluralCategories)
	sort.Strings(set)
	return set
}

// override carries static metadata merged over the CLDR-derived defaults.
type override struct {
	name        string
	categories  []string // nil: probe CLDR rules
	noSeparator bool     // script written without word separators
}

// overrides lists the locales the tool knows display metadata for.
// Codes absent here can still be registered; they get probed categories,
// the separator warning enabled, and the code itself as display name.
var overrides = map[string]override{
	"ar":    {name: "العربية"},
	"cs":    {name: "Čeština"},
	"de":    {name: "Deutsch", categories: []string{"one", "other"}},
	"en":    {name: "English", categories: []string{"one", "other"}},
	"es":    {name: "Español"},
	"fr":    {name: "Français"},
	"id":    {name: "Bahasa Indonesia", categories: []string{"other"}},
	"it":    {name: "Italiano"},
	"ja":    {name: "日本語", categories: []string{"other"}, noSeparator: true},
	"km":    {name: "ខ្មែរ", noSeparator: true},
	"ko":    {name: "한국어", categories: []string{"other"}, noSeparator: true},
	"lo":    {name: "ລາວ", noSeparator: true},
	"nl":    {name: "Nederlands"},
	"pl":    {name: "Polski"},
	"pt":    {name: "Português"},
	"pt-BR": {name: "Português (Brasil)"},
	"ru":    {name: "Русский"},
	"th":    {name: "ไทย", noSeparator: true},
	"tr":    {name: "Türkçe"},
	"uk":    {name: "Українська"},
	"vi":    {name: "Tiếng Việt", noSeparator: true},
	"zh":    {name: "中文", categories: []string{"other"}, noSeparator: true},
	"zh-TW": {name: "繁體中文", categories: []string{"other"}, noSeparator: true},
}

// canonicalOrder is the CLDR category order used for PluralCategories.
var canonicalOrder = []string{"zero", "one", "two", "few", "many", "other"}

var formNames = map[plural.Form]string{
	plural.Zero:  "zero",
	plural.One:   "one",
	plural.Two:   "two",
	plural.Few:   "few",
	plural.Many:  "many",
	plural.Other: "other",
}

// Registry is the immutable locale lookup table, built once at startup.
type Registry struct {
	locales map[string]*Locale
	codes   []string
}

// NewRegistry builds the registry for the given locale codes.
// Unknown or malformed codes are a configuration error.
func NewRegistry(codes []string) (*Registry, error) {
	r := &Registry{locales: make(map[string]*Locale, len(codes))}
	for _, code := range codes {
		if _, dup := r.locales[code]; dup {
			return nil, fmt.Errorf("locale %q registered twice", code)
		}
		loc, err := build(code)
		if err != nil {
			return nil, err
		}
		r.locales[code] = loc
		r.codes = append(r.codes, code)
	}
	sort.Strings(r.codes)
	return r, nil
}

// Get looks up a locale by code. A miss is a configuration error:
// every locale the pipeline touches must be registered up front.
func (r *Registry) Get(code string) (*Locale, error) {
	loc, ok := r.locales[code]
	if !ok {
		return nil, fmt.Errorf("locale %q is not in the registry (known: %s)", code, strings.Join(r.codes, ", "))
	}
	return loc, nil
}

// Codes returns all registered locale codes in sorted order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

func build(code string) (*Locale, error) {
	ov := overrides[code]

	loc := &Locale{
		Code:                         code,
		Name:                         ov.name,
		WarnMissingVariableSeparator: !ov.noSeparator,
	}
	if loc.Name == "" {
		loc.Name = code
	}

	if ov.categories != nil {
		loc.PluralCategories = orderCategories(ov.categories)
		return loc, nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("locale %q: parsing language tag: %w", code, err)
	}
	loc.PluralCategories = probeCategories(tag)
	return loc, nil
}

// probeCategories derives a locale's cardinal plural categories from the
// CLDR rules by sampling operand space: integers 0..1000 catch every
// integer-keyed rule in CLDR (Arabic "few" reappears at 103, Russian
// "many" at 11, ...), and one-digit decimals catch fraction-sensitive rules.
func probeCategories(tag language.Tag) []string {
	seen := make(map[string]bool)
	for n := 0; n <= 1000; n++ {
		form := plural.Cardinal.MatchPlural(tag, n, 0, 0, 0, 0)
		seen[formNames[form]] = true
	}
	for n := 0; n <= 20; n++ {
		for f := 0; f <= 9; f++ {
			form := plural.Cardinal.MatchPlural(tag, n, 1, 1, f, f)
			seen[formNames[form]] = true
		}
	}

	var cats []string
	for name := range seen {
		cats = append(cats, name)
	}
	return orderCategories(cats)
}

// orderCategories returns the given category names in canonical CLDR order.
func orderCategories(cats []string) []string {
	present := make(map[string]bool, len(cats))
	for _, c := range cats {
		present[c] = true
	}
	var out []string
	for _, c := range canonicalOrder {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}
