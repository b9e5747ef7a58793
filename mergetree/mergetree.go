// Package mergetree walks a source message tree and a parallel, possibly
// partial, translated tree together. It owns the translated values
// outright — handles returned by Node carry a key path into the tree, not
// an alias into shared state — and exposes the read/write/clear/walk
// operations the per-locale passes and the artifact emitters are built on.
package mergetree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/localehub/trex/locale"
	"github.com/localehub/trex/message"
	"github.com/localehub/trex/tree"
)

// Tree pairs an immutable source tree with the translated values for one
// locale. Construct one per locale-write operation and discard it after
// emission.
type Tree struct {
	source *tree.Node
	loc    *locale.Locale
	// translated maps dotted leaf paths to their current translation.
	// Unset paths read as message.Untranslated().
	translated map[string]message.Message
}

// New builds an empty merge tree over source for the given locale.
func New(source *tree.Node, loc *locale.Locale) *Tree {
	return &Tree{
		source:     source,
		loc:        loc,
		translated: make(map[string]message.Message),
	}
}

// Locale returns the locale this merge tree is being built for.
func (t *Tree) Locale() *locale.Locale { return t.loc }

// Source returns the immutable source tree.
func (t *Tree) Source() *tree.Node { return t.source }

// Handle addresses one node of the merge tree by path. Edits made through
// the tree are visible through handles obtained earlier.
type Handle struct {
	t    *Tree
	path []string
}

// Node returns a handle for the given path.
func (t *Tree) Node(path ...string) *Handle {
	owned := make([]string, len(path))
	copy(owned, path)
	return &Handle{t: t, path: owned}
}

// Child extends the handle's path by one key.
func (h *Handle) Child(key string) *Handle {
	return h.t.Node(append(append([]string(nil), h.path...), key)...)
}

// Path returns the dotted path the handle addresses.
func (h *Handle) Path() string { return strings.Join(h.path, ".") }

// sourceAt resolves a path in the source tree, traversing mappings by key
// and sequences by stringified index.
func (t *Tree) sourceAt(path []string) (*tree.Node, error) {
	cur := t.source
	for _, key := range path {
		switch cur.Kind {
		case tree.Mapping:
			next, ok := cur.Child(key)
			if !ok {
				return nil, fmt.Errorf("no source key %q under %q", key, strings.Join(path, "."))
			}
			cur = next
		case tree.Sequence:
			idx := -1
			fmt.Sscanf(key, "%d", &idx)
			if idx < 0 || idx >= len(cur.Items) {
				return nil, fmt.Errorf("no source index %q under %q", key, strings.Join(path, "."))
			}
			cur = cur.Items[idx]
		default:
			return nil, fmt.Errorf("path %q descends through a leaf", strings.Join(path, "."))
		}
	}
	return cur, nil
}

// SourceMessage returns the source message at the handle's path.
func (h *Handle) SourceMessage() (message.Message, error) {
	n, err := h.t.sourceAt(h.path)
	if err != nil {
		return message.Message{}, err
	}
	if n.Kind != tree.Leaf {
		return message.Message{}, fmt.Errorf("%q is a %s in the source, not a message", h.Path(), n.Kind)
	}
	return n.Msg, nil
}

// Message returns the current translation at the handle's path, which must
// be a message leaf in the source. Unset leaves read as untranslated.
func (h *Handle) Message() (message.Message, error) {
	if _, err := h.SourceMessage(); err != nil {
		return message.Message{}, err
	}
	if m, ok := h.t.translated[h.Path()]; ok {
		return m, nil
	}
	return message.Untranslated(), nil
}

// Set replaces the translation at the handle's path. The path must be a
// message leaf in the source and the value a well-formed message.
func (h *Handle) Set(m message.Message) error {
	if _, err := h.SourceMessage(); err != nil {
		return err
	}
	if m.Len() == 0 {
		return fmt.Errorf("at %q: not a well-formed message (zero variants)", h.Path())
	}
	h.t.translated[h.Path()] = m
	return nil
}

// Delete resets the leaf at the handle's path to untranslated.
func (h *Handle) Delete() error {
	if _, err := h.SourceMessage(); err != nil {
		return err
	}
	h.t.translated[h.Path()] = message.Untranslated()
	return nil
}

// Clear recursively resets every leaf under the handle's path.
func (h *Handle) Clear() error {
	n, err := h.t.sourceAt(h.path)
	if err != nil {
		return err
	}
	prefix := h.path
	return n.Walk(func(rel []string, node *tree.Node) error {
		if node.Kind != tree.Leaf {
			return nil
		}
		full := strings.Join(append(append([]string(nil), prefix...), rel...), ".")
		h.t.translated[full] = message.Untranslated()
		return nil
	})
}

// Walk visits every message leaf depth-first in source order, passing the
// leaf's path, its source message, and its current translation.
func (t *Tree) Walk(fn func(path []string, src, translated message.Message) error) error {
	return t.source.Walk(func(path []string, n *tree.Node) error {
		if n.Kind != tree.Leaf {
			return nil
		}
		cur, ok := t.translated[strings.Join(path, ".")]
		if !ok {
			cur = message.Untranslated()
		}
		return fn(path, n.Msg, cur)
	})
}

// Apply copies the leaves of a destructured payload into the translated
// tree. The payload mirrors the restructured shape: sequences appear as
// mappings keyed by stringified index. A payload leaf with no matching
// source leaf is a structural error.
func (t *Tree) Apply(payload *tree.Node) error {
	return payload.Walk(func(path []string, n *tree.Node) error {
		if n.Kind != tree.Leaf {
			return nil
		}
		h := t.Node(path...)
		if err := h.Set(n.Msg); err != nil {
			return fmt.Errorf("applying payload: %w", err)
		}
		return nil
	})
}

// Stats returns the leaf totals for this merge tree.
func (t *Tree) Stats() (total, translated int) {
	t.Walk(func(path []string, src, cur message.Message) error {
		total++
		if !cur.Empty() {
			translated++
		}
		return nil
	})
	return total, translated
}

// Emit serializes the translated tree as indented JSON in native shape:
// plural variants joined with the two-form separator, sequences as real
// arrays. Untranslated leaves and the mappings they empty out are
// omitted; a sequence with a mix of translated and untranslated elements
// cannot be represented and fails. Top-level keys listed in skip are left
// out (used to withhold the component subtree from locale files).
func (t *Tree) Emit(skip ...string) ([]byte, error) {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	var b bytes.Buffer
	omitted, err := t.emitNode(&b, t.source, nil, 0, skipSet)
	if err != nil {
		return nil, err
	}
	if omitted {
		return []byte("{}\n"), nil
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// EmitAt serializes only the subtree at path.
func (t *Tree) EmitAt(path ...string) ([]byte, error) {
	n, err := t.sourceAt(path)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	omitted, err := t.emitNode(&b, n, path, 0, nil)
	if err != nil {
		return nil, err
	}
	if omitted {
		return []byte("{}\n"), nil
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// emitNode writes n's translated value to b. It reports true when the
// node produced nothing and its key should be omitted by the caller.
func (t *Tree) emitNode(b *bytes.Buffer, n *tree.Node, path []string, depth int, skipTop map[string]bool) (omitted bool, err error) {
	switch n.Kind {
	case tree.Leaf:
		cur, ok := t.translated[strings.Join(path, ".")]
		if !ok {
			cur = message.Untranslated()
		}
		if cur.Empty() {
			return true, nil
		}
		native, err := cur.Native()
		if err != nil {
			return false, fmt.Errorf("at %q: %w", strings.Join(path, "."), err)
		}
		data, err := json.Marshal(native)
		if err != nil {
			return false, err
		}
		b.Write(data)
		return false, nil

	case tree.Mapping:
		var body bytes.Buffer
		indent := strings.Repeat("    ", depth)
		wrote := 0
		for _, key := range n.Keys() {
			if depth == 0 && skipTop[key] {
				continue
			}
			child, _ := n.Child(key)
			var childBuf bytes.Buffer
			childPath := append(append([]string(nil), path...), key)
			childOmitted, err := t.emitNode(&childBuf, child, childPath, depth+1, nil)
			if err != nil {
				return false, err
			}
			if childOmitted {
				continue
			}
			if wrote > 0 {
				body.WriteByte(',')
			}
			keyJSON, _ := json.Marshal(key)
			body.WriteString("\n" + indent + "    ")
			body.Write(keyJSON)
			body.WriteString(": ")
			body.Write(childBuf.Bytes())
			wrote++
		}
		if wrote == 0 {
			return true, nil
		}
		b.WriteString("{")
		b.Write(body.Bytes())
		b.WriteString("\n" + indent + "}")
		return false, nil

	case tree.Sequence:
		var parts []bytes.Buffer
		emptyCount := 0
		for i, item := range n.Items {
			var childBuf bytes.Buffer
			childPath := append(append([]string(nil), path...), fmt.Sprint(i))
			childOmitted, err := t.emitNode(&childBuf, item, childPath, depth+1, nil)
			if err != nil {
				return false, err
			}
			if childOmitted {
				emptyCount++
			}
			parts = append(parts, childBuf)
		}
		if emptyCount == len(n.Items) {
			return true, nil
		}
		if emptyCount > 0 {
			return false, fmt.Errorf("at %q: sparse array: %d of %d elements untranslated; clear the whole array or translate every element",
				strings.Join(path, "."), emptyCount, len(n.Items))
		}
		indent := strings.Repeat("    ", depth)
		b.WriteString("[")
		for i := range parts {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString("\n" + indent + "    ")
			b.Write(parts[i].Bytes())
		}
		b.WriteString("\n" + indent + "]")
		return false, nil
	}
	return false, fmt.Errorf("at %q: invalid node kind", strings.Join(path, "."))
}
