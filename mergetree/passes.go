package mergetree

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/localehub/trex/exchange"
	"github.com/localehub/trex/locale"
	"github.com/localehub/trex/message"
	"github.com/localehub/trex/tree"
)

// Warning is a non-fatal stylistic finding reported by Validate.
type Warning struct {
	Path string
	Text string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Text)
}

// Finalize runs the per-locale passes in their required order: partial
// translation deletion, linked-message copy, then content validation.
// Use it for every locale except the source locale, which gets SelfCheck.
func (t *Tree) Finalize() ([]Warning, error) {
	if err := t.ClearPartialGroups(); err != nil {
		return nil, err
	}
	if err := t.CopyLinks(); err != nil {
		return nil, err
	}
	return t.Validate()
}

// ClearPartialGroups clears every sequence and component-interpolation
// group that contains an untranslated leaf. A half-translated group would
// otherwise render as a mix of translated and source-language fragments.
// Inner groups are checked before the groups enclosing them, so a cleared
// inner group propagates outward.
func (t *Tree) ClearPartialGroups() error {
	return t.clearPartial(t.source, nil)
}

func (t *Tree) clearPartial(n *tree.Node, path []string) error {
	switch n.Kind {
	case tree.Mapping:
		for _, key := range n.Keys() {
			child, _ := n.Child(key)
			if err := t.clearPartial(child, append(path, key)); err != nil {
				return err
			}
		}
		if n.InterpGroup && t.anyEmptyLeaf(n, path) {
			return t.Node(path...).Clear()
		}
	case tree.Sequence:
		for i, item := range n.Items {
			if err := t.clearPartial(item, append(path, fmt.Sprint(i))); err != nil {
				return err
			}
		}
		if t.anyEmptyLeaf(n, path) {
			return t.Node(path...).Clear()
		}
	}
	return nil
}

func (t *Tree) anyEmptyLeaf(n *tree.Node, path []string) bool {
	empty := false
	n.Walk(func(rel []string, node *tree.Node) error {
		if node.Kind != tree.Leaf {
			return nil
		}
		full := strings.Join(append(append([]string(nil), path...), rel...), ".")
		if m, ok := t.translated[full]; !ok || m.Empty() {
			empty = true
		}
		return nil
	})
	return empty
}

// CopyLinks writes each linked source message into the translated tree,
// but only when the link target's translation is non-empty. A link must
// not surface a message whose target has no translation yet.
func (t *Tree) CopyLinks() error {
	return t.source.Walk(func(path []string, n *tree.Node) error {
		if n.Kind != tree.Leaf {
			return nil
		}
		targetPath, isLink, err := n.Msg.LinkPath()
		if err != nil {
			return fmt.Errorf("at %q: %w", strings.Join(path, "."), err)
		}
		if !isLink {
			return nil
		}
		if _, err := tree.ResolveLink(t.source, targetPath); err != nil {
			return fmt.Errorf("at %q: %w", strings.Join(path, "."), err)
		}
		target, err := t.Node(targetPath...).Message()
		if err != nil {
			return fmt.Errorf("at %q: %w", strings.Join(path, "."), err)
		}
		if target.Empty() {
			// Target untranslated: the link stays untranslated too and
			// is omitted from output.
			return nil
		}
		return t.Node(path...).Set(n.Msg)
	})
}

// Validate runs the per-leaf content checks and collects the non-fatal
// separator warnings. Any hard violation aborts with an error naming the
// offending key and value.
func (t *Tree) Validate() ([]Warning, error) {
	var warnings []Warning
	err := t.Walk(func(path []string, src, cur message.Message) error {
		dotted := strings.Join(path, ".")

		if cur.Empty() {
			return nil
		}

		// Arity parity only matters for locales that distinguish plural
		// categories at all. Single-category locales skip the check
		// entirely; see the adjacent tests before tightening this.
		if t.loc.Multi() {
			if (src.Len() > 1) != (cur.Len() > 1) {
				return fmt.Errorf("at %q: pluralization mismatch: source has %d form(s), translation %q has %d",
					dotted, src.Len(), join(cur), cur.Len())
			}
		}

		srcVars, err := src.Vars()
		if err != nil {
			return fmt.Errorf("at %q: %w", dotted, err)
		}
		curVars, err := cur.Vars()
		if err != nil {
			return fmt.Errorf("at %q: %w", dotted, err)
		}
		if !equalStrings(srcVars, curVars) {
			return fmt.Errorf("at %q: variable mismatch: source uses [%s], translation %q uses [%s]",
				dotted, strings.Join(srcVars, " "), join(cur), strings.Join(curVars, " "))
		}

		for i := 0; i < cur.Len(); i++ {
			v := cur.Variant(i)
			if strings.Contains(v, message.LinkMarker) {
				if i >= src.Len() || v != src.Variant(i) {
					return fmt.Errorf("at %q: translated variant %q contains a link marker and differs from the source; links must pass through verbatim", dotted, v)
				}
			}
			if t.loc.WarnMissingVariableSeparator {
				if glued, token := adjacentToken(v); glued {
					warnings = append(warnings, Warning{
						Path: dotted,
						Text: fmt.Sprintf("variable %s is glued to surrounding text in %q; add a separator", token, v),
					})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return warnings, nil
}

// adjacentToken reports whether any {name} token directly touches a
// letter or digit, which usually reads badly in languages that separate
// words. Returns the first offending token.
func adjacentToken(s string) (bool, string) {
	runes := []rune(s)
	depth := 0
	start := -1
	for i, r := range runes {
		switch r {
		case '{':
			if depth == 0 {
				start = i
				if i > 0 && isWordRune(runes[i-1]) {
					return true, tokenAt(runes, i)
				}
			}
			depth++
		case '}':
			depth--
			if depth == 0 && i+1 < len(runes) && isWordRune(runes[i+1]) {
				return true, string(runes[start : i+1])
			}
		}
	}
	return false, ""
}

func tokenAt(runes []rune, open int) string {
	for i := open; i < len(runes); i++ {
		if runes[i] == '}' {
			return string(runes[open : i+1])
		}
	}
	return string(runes[open:])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func join(m message.Message) string {
	return strings.Join(m.Variants(), " | ")
}

// SelfCheck verifies the two converters against each other for the source
// locale: restructuring and then destructuring the source tree must yield
// byte-for-byte the same emitted artifact as the source itself. A failure
// here is a defect in the engine, not in the data.
func SelfCheck(source *tree.Node, comments *tree.Comments, loc *locale.Locale) error {
	ex, err := exchange.Restructure(source, comments)
	if err != nil {
		return fmt.Errorf("self-check restructure: %w", err)
	}
	payload, err := ex.Marshal()
	if err != nil {
		return fmt.Errorf("self-check marshal: %w", err)
	}
	back, err := exchange.Destructure(payload, loc)
	if err != nil {
		return fmt.Errorf("self-check destructure: %w", err)
	}

	roundTripped := New(source, loc)
	if err := roundTripped.Apply(back); err != nil {
		return fmt.Errorf("self-check apply: %w", err)
	}
	// Links are omitted by restructuring; restore them the same way a
	// normal merge would before comparing.
	if err := roundTripped.CopyLinks(); err != nil {
		return fmt.Errorf("self-check link copy: %w", err)
	}

	reference := New(source, loc)
	err = source.Walk(func(path []string, n *tree.Node) error {
		if n.Kind != tree.Leaf {
			return nil
		}
		return reference.Node(path...).Set(n.Msg)
	})
	if err != nil {
		return fmt.Errorf("self-check seed: %w", err)
	}

	got, err := roundTripped.Emit()
	if err != nil {
		return fmt.Errorf("self-check emit: %w", err)
	}
	want, err := reference.Emit()
	if err != nil {
		return fmt.Errorf("self-check emit: %w", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("restructure/destructure round trip drifted from the source tree:\n--- source\n%s\n--- round trip\n%s", want, got)
	}
	return nil
}
