// Package exchange implements the two converters between the native
// message tree and the flat exchange format of the translation platform.
//
// Restructure turns the native tree into an exchange tree: every message
// leaf becomes {"string": ..., "developer_comment": ...}, sequences become
// mappings keyed by stringified index (the exchange JSON dialect has no
// arrays), linked messages are validated and omitted, and mappings left
// empty by omission are dropped.
//
// Destructure turns a per-locale exchange payload back into a native-tree-
// shaped set of translated values: any JSON object carrying a "string"
// field is a message leaf, everything else is plain nesting.
package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/localehub/trex/interp"
	"github.com/localehub/trex/locale"
	"github.com/localehub/trex/message"
	"github.com/localehub/trex/tree"
)

// Leaf is one translatable unit in the exchange format.
type Leaf struct {
	String           string `json:"string"`
	DeveloperComment string `json:"developer_comment,omitempty"`
}

// Tree is an exchange-format tree preserving source key order.
type Tree struct {
	keys     []string
	children map[string]*Tree
	leaf     *Leaf
}

func newBranch() *Tree {
	return &Tree{children: make(map[string]*Tree)}
}

// IsLeaf reports whether the node is a translatable unit.
func (t *Tree) IsLeaf() bool { return t.leaf != nil }

// Leaf returns the node's translatable unit, or nil for branches.
func (t *Tree) Leaf() *Leaf { return t.leaf }

// Keys returns the branch keys in source order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Child returns the branch child for key.
func (t *Tree) Child(key string) (*Tree, bool) {
	c, ok := t.children[key]
	return c, ok
}

func (t *Tree) put(key string, child *Tree) {
	t.keys = append(t.keys, key)
	t.children[key] = child
}

// Marshal renders the exchange tree as indented JSON, keys in source
// order, HTML-sensitive characters escaped.
func (t *Tree) Marshal() ([]byte, error) {
	var b bytes.Buffer
	if err := t.write(&b, 0); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (t *Tree) write(b *bytes.Buffer, depth int) error {
	if t.leaf != nil {
		data, err := json.Marshal(t.leaf)
		if err != nil {
			return err
		}
		b.Write(data)
		return nil
	}

	indent := strings.Repeat("    ", depth)
	b.WriteString("{")
	for i, key := range t.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString("\n" + indent + "    ")
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return err
		}
		b.Write(keyJSON)
		b.WriteString(": ")
		if err := t.children[key].write(b, depth+1); err != nil {
			return err
		}
	}
	if len(t.keys) > 0 {
		b.WriteString("\n" + indent)
	}
	b.WriteString("}")
	return nil
}

// Restructure converts a native message tree into the exchange tree.
// It returns nil when the whole tree restructures away (all links).
func Restructure(root *tree.Node, comments *tree.Comments) (*Tree, error) {
	if comments == nil {
		comments = tree.NewComments()
	}
	c := &converter{root: root, comments: comments}
	out, err := c.node(root, nil, nil, false)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = newBranch()
	}
	return out, nil
}

type converter struct {
	root     *tree.Node
	comments *tree.Comments
}

// node converts one native node. interpComments is non-nil for members of
// a component-interpolation group; inSequence is sticky below a sequence,
// because partial-translation cleanup operates on whole arrays.
func (c *converter) node(n *tree.Node, path []string, interpComments map[string]string, inSequence bool) (*Tree, error) {
	joined := strings.Join(path, ".")

	switch n.Kind {
	case tree.Leaf:
		linkPath, isLink, err := n.Msg.LinkPath()
		if err != nil {
			return nil, fmt.Errorf("at %q: %w", joined, err)
		}
		if isLink {
			if inSequence {
				return nil, fmt.Errorf("at %q: links are not allowed inside arrays (partial-translation cleanup would strip them silently)", joined)
			}
			if _, err := tree.ResolveLink(c.root, linkPath); err != nil {
				return nil, fmt.Errorf("at %q: %w", joined, err)
			}
			// Valid links carry no translatable text of their own.
			return nil, nil
		}

		encoded, err := n.Msg.Exchange()
		if err != nil {
			return nil, fmt.Errorf("at %q: %w", joined, err)
		}
		leaf := &Leaf{String: encoded, DeveloperComment: c.comment(path, interpComments)}
		return &Tree{leaf: leaf}, nil

	case tree.Mapping:
		var memberComments map[string]string
		if n.InterpGroup {
			it, err := interp.Build(n)
			if err != nil {
				return nil, fmt.Errorf("at %q: %w", joined, err)
			}
			memberComments = it.Comments()
		}

		out := newBranch()
		for _, key := range n.Keys() {
			child, _ := n.Child(key)
			converted, err := c.node(child, append(path, key), memberComments, inSequence)
			if err != nil {
				return nil, err
			}
			if converted == nil {
				continue
			}
			out.put(key, converted)
		}
		if len(out.keys) == 0 {
			// Every child was an omitted link; drop the whole mapping.
			return nil, nil
		}
		return out, nil

	case tree.Sequence:
		out := newBranch()
		for i, item := range n.Items {
			converted, err := c.node(item, append(path, fmt.Sprint(i)), nil, true)
			if err != nil {
				return nil, err
			}
			if converted == nil {
				continue
			}
			out.put(fmt.Sprint(i), converted)
		}
		return out, nil
	}
	return nil, fmt.Errorf("at %q: invalid node kind", joined)
}

// comment composes a leaf's developer comment from its three sources:
// the inline comment above the key wins over the named top-of-file
// comment; the interpolation-generated comment is always appended last.
func (c *converter) comment(path []string, interpComments map[string]string) string {
	if len(path) == 0 {
		return ""
	}
	key := path[len(path)-1]

	text := c.comments.Inline[strings.Join(path, ".")]
	if text == "" {
		text = c.comments.Named[key]
	}
	if generated := interpComments[key]; generated != "" {
		if text != "" {
			text += " " + generated
		} else {
			text = generated
		}
	}
	return text
}

// Destructure parses a per-locale exchange payload into a native-shaped
// tree of translated values for the given locale.
func Destructure(data []byte, loc *locale.Locale) (*tree.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("payload must be a JSON object, got %v", t)
	}

	obj, err := parseObject(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	return toNode(obj, "", loc)
}

// rawObject holds one decoded JSON object with its key order.
type rawObject struct {
	keys []string
	vals map[string]any // string or *rawObject
}

// parseObject consumes an object body after its opening brace, keeping
// key order the way the decoder delivers it.
func parseObject(dec *json.Decoder) (*rawObject, error) {
	obj := &rawObject{vals: make(map[string]any)}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := vt.(type) {
		case string:
			obj.vals[key] = v
		case json.Delim:
			if v != '{' {
				return nil, fmt.Errorf("unexpected %v for key %q", v, key)
			}
			nested, err := parseObject(dec)
			if err != nil {
				return nil, err
			}
			obj.vals[key] = nested
		default:
			return nil, fmt.Errorf("unexpected value %v for key %q", vt, key)
		}
		obj.keys = append(obj.keys, key)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

// toNode converts a decoded object: objects carrying a "string" field are
// message leaves, everything else is plain nesting.
func toNode(obj *rawObject, path string, loc *locale.Locale) (*tree.Node, error) {
	if raw, ok := obj.vals["string"].(string); ok {
		msg, err := message.ParseExchange(raw, loc)
		if err != nil {
			return nil, fmt.Errorf("at %q: %w", path, err)
		}
		return tree.NewLeaf(msg), nil
	}

	out := tree.NewMapping()
	for _, key := range obj.keys {
		childPath := key
		if path != "" {
			childPath = path + "." + key
		}
		nested, ok := obj.vals[key].(*rawObject)
		if !ok {
			return nil, fmt.Errorf("at %q: unexpected bare string outside a message object", childPath)
		}
		child, err := toNode(nested, childPath, loc)
		if err != nil {
			return nil, err
		}
		if err := out.Put(key, child); err != nil {
			return nil, fmt.Errorf("at %q: %w", childPath, err)
		}
	}
	return out, nil
}
