// Package message implements the pluralized-string value type exchanged
// between the native message tree and the translation platform.
//
// A Message is an ordered, fixed-length list of plural variants: length 1
// for non-pluralized strings, one entry per plural category otherwise.
// The native encoding joins two variants with " | ":
//
//	{n} item | {n} items
//
// The exchange encoding wraps variants in an ICU-style plural string:
//
//	{count, plural, one {{n} item} other {{n} items}}
//
// Messages are immutable; every constructor validates that all variants
// use the same variable tokens and that emptiness (meaning "untranslated")
// is all-or-nothing across variants.
package message

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/localehub/trex/locale"
)

const (
	// nativeSeparator joins the two plural forms in native-format strings.
	nativeSeparator = " | "
	// separatorChar may not appear inside a variant in either direction.
	separatorChar = "|"
)

// Message is an immutable pluralized string.
// The zero value is not valid; use the constructors.
type Message struct {
	variants []string
}

// New builds a Message from explicit variants, validating variable-set
// equality and uniform emptiness across them.
func New(variants ...string) (Message, error) {
	if len(variants) == 0 {
		return Message{}, fmt.Errorf("message needs at least one variant")
	}
	owned := make([]string, len(variants))
	copy(owned, variants)
	if err := validate(owned); err != nil {
		return Message{}, err
	}
	return Message{variants: owned}, nil
}

// Untranslated returns the single-variant empty Message that marks a key
// as having no translation yet.
func Untranslated() Message {
	return Message{variants: []string{""}}
}

// Len returns the number of plural variants.
func (m Message) Len() int { return len(m.variants) }

// Variant returns the i-th plural variant.
func (m Message) Variant(i int) string { return m.variants[i] }

// Variants returns a copy of all plural variants.
func (m Message) Variants() []string {
	out := make([]string, len(m.variants))
	copy(out, m.variants)
	return out
}

// First returns the first variant.
func (m Message) First() string {
	if len(m.variants) == 0 {
		return ""
	}
	return m.variants[0]
}

// Last returns the final-category variant, the plural form translators
// should usually expect in composed text.
func (m Message) Last() string {
	if len(m.variants) == 0 {
		return ""
	}
	return m.variants[len(m.variants)-1]
}

// Empty reports whether the message is untranslated. Emptiness is uniform
// across variants, so checking the first one suffices.
func (m Message) Empty() bool {
	return len(m.variants) == 0 || m.variants[0] == ""
}

// Vars returns the message's variable-token set. All variants carry the
// same set, so the first variant is canonical.
func (m Message) Vars() ([]string, error) {
	return Vars(m.First())
}

// Equal reports whether two messages have identical variant lists.
func (m Message) Equal(other Message) bool {
	if len(m.variants) != len(other.variants) {
		return false
	}
	for i := range m.variants {
		if m.variants[i] != other.variants[i] {
			return false
		}
	}
	return true
}

// badWhitespace matches doubled whitespace inside a variant.
var badWhitespace = regexp.MustCompile(`\s\s`)

// ParseNative parses a native-format string into a Message.
// At most two forms may be separated by " | "; a bare | inside a variant
// and sloppy whitespace are grammar errors.
func ParseNative(raw string) (Message, error) {
	parts := strings.Split(raw, nativeSeparator)
	if len(parts) > 2 {
		return Message{}, fmt.Errorf("more than two plural forms in %q", raw)
	}
	for _, p := range parts {
		if strings.Contains(p, separatorChar) {
			return Message{}, fmt.Errorf("stray %q in %q: the separator must be surrounded by single spaces", separatorChar, raw)
		}
		if p != strings.TrimSpace(p) {
			return Message{}, fmt.Errorf("leading or trailing whitespace in variant %q of %q", p, raw)
		}
		if badWhitespace.MatchString(p) {
			return Message{}, fmt.Errorf("doubled whitespace in variant %q of %q", p, raw)
		}
	}
	return New(parts...)
}

// pluralWrapper matches the ICU plural wrapper around a pluralized
// exchange string, capturing the category body.
var pluralWrapper = regexp.MustCompile(`(?s)^\{\s*[A-Za-z0-9_]+\s*,\s*plural\s*,\s*(.+)\}\s*$`)

// ParseExchange parses an exchange-format string for the given locale.
//
// A plural wrapper must provide exactly the locale's plural categories;
// a mismatch is fatal and usually means the payload was fetched from the
// platform before this locale was translated. Without a wrapper the whole
// string is the single variant. Whitespace is trimmed and collapsed per
// variant before the usual validation.
func ParseExchange(raw string, loc *locale.Locale) (Message, error) {
	sub := pluralWrapper.FindStringSubmatch(strings.TrimSpace(raw))
	if sub == nil {
		return New(collapseSpace(raw))
	}

	byCategory, found, err := splitCategories(sub[1])
	if err != nil {
		return Message{}, fmt.Errorf("parsing plural string %q: %w", raw, err)
	}

	sort.Strings(found)
	want := loc.CategorySet()
	if !sameVars(found, want) {
		return Message{}, fmt.Errorf(
			"plural categories [%s] in %q do not match locale %s categories [%s]; this usually means the payload was fetched before it was translated",
			strings.Join(found, " "), raw, loc.Code, strings.Join(want, " "))
	}

	variants := make([]string, 0, len(loc.PluralCategories))
	for _, cat := range loc.PluralCategories {
		variants = append(variants, collapseSpace(byCategory[cat]))
	}
	return New(variants...)
}

// splitCategories scans the body of an ICU plural wrapper, returning the
// text per category. Category blocks are delimited by brace matching with
// nesting, so variable tokens inside a block survive intact.
func splitCategories(body string) (map[string]string, []string, error) {
	byCategory := make(map[string]string)
	var found []string

	i, n := 0, len(body)
	for i < n {
		for i < n && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n') {
			i++
		}
		if i >= n {
			break
		}

		start := i
		for i < n && body[i] != ' ' && body[i] != '{' {
			i++
		}
		category := strings.TrimSpace(body[start:i])
		if category == "" {
			return nil, nil, fmt.Errorf("empty plural category name")
		}

		for i < n && body[i] != '{' {
			i++
		}
		if i >= n {
			return nil, nil, fmt.Errorf("missing { after category %q", category)
		}
		i++

		depth := 1
		textStart := i
		for i < n && depth > 0 {
			switch body[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			i++
		}
		if depth != 0 {
			return nil, nil, fmt.Errorf("unclosed { in category %q", category)
		}

		if _, dup := byCategory[category]; dup {
			return nil, nil, fmt.Errorf("category %q given twice", category)
		}
		byCategory[category] = body[textStart : i-1]
		found = append(found, category)
	}

	if len(found) == 0 {
		return nil, nil, fmt.Errorf("no plural categories found")
	}
	return byCategory, found, nil
}

// collapseSpace trims and collapses internal whitespace runs to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Native encodes the message in native format, joining variants with the
// two-form separator. A variant containing the separator character would
// be ambiguous to reparse and is rejected.
func (m Message) Native() (string, error) {
	if m.Empty() {
		return "", nil
	}
	for _, v := range m.variants {
		if strings.Contains(v, separatorChar) {
			return "", fmt.Errorf("variant %q contains %q and cannot be encoded in native format", v, separatorChar)
		}
	}
	return strings.Join(m.variants, nativeSeparator), nil
}

// Exchange encodes the message in exchange format: the bare string for one
// variant, the two-category ICU plural wrapper for two. Single quotes are
// reserved for ICU escaping and # for count substitution, so neither may
// appear in a variant.
func (m Message) Exchange() (string, error) {
	if len(m.variants) > 2 {
		return "", fmt.Errorf("cannot encode %d plural forms in exchange format", len(m.variants))
	}
	for _, v := range m.variants {
		if strings.Contains(v, "'") {
			return "", fmt.Errorf("variant %q contains a single quote, reserved for ICU escaping", v)
		}
		if strings.Contains(v, "#") {
			return "", fmt.Errorf("variant %q contains #, reserved for ICU count substitution", v)
		}
	}
	if len(m.variants) == 2 {
		return fmt.Sprintf("{count, plural, one {%s} other {%s}}", m.variants[0], m.variants[1]), nil
	}
	return m.variants[0], nil
}

// validate enforces the two cross-variant invariants: identical variable
// sets and all-or-nothing emptiness.
func validate(variants []string) error {
	canonical, err := Vars(variants[0])
	if err != nil {
		return err
	}
	empty := variants[0] == ""
	for _, v := range variants[1:] {
		vars, err := Vars(v)
		if err != nil {
			return err
		}
		if !sameVars(canonical, vars) {
			return fmt.Errorf("variants use different variables: %q has [%s], %q has [%s]",
				variants[0], strings.Join(canonical, " "), v, strings.Join(vars, " "))
		}
		if (v == "") != empty {
			return fmt.Errorf("mixed empty and non-empty variants in %q: emptiness marks an untranslated message and must be uniform", strings.Join(variants, nativeSeparator))
		}
	}
	return nil
}
