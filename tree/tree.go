// Package tree implements the native message tree: nested mappings and
// sequences whose leaves are pluralized messages.
//
// A node is exactly one of Leaf, Mapping, or Sequence. Whether a mapping
// is a component-interpolation group (it owns a key named "full") is
// decided when the mapping is built, not re-inferred at call sites.
package tree

import (
	"fmt"
	"strings"

	"github.com/localehub/trex/message"
)

// InterpRootKey marks the root message of a component-interpolation group.
const InterpRootKey = "full"

// Kind discriminates the three node variants.
type Kind int

const (
	Leaf Kind = iota
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	}
	return "invalid"
}

// Node is one node of a native message tree.
type Node struct {
	Kind Kind

	// Msg is set for Leaf nodes.
	Msg message.Message

	// keys/children hold Mapping entries in source order.
	keys     []string
	children map[string]*Node

	// Items holds Sequence elements.
	Items []*Node

	// InterpGroup is true for mappings that contain InterpRootKey.
	InterpGroup bool
}

// NewLeaf wraps a message in a leaf node.
func NewLeaf(m message.Message) *Node {
	return &Node{Kind: Leaf, Msg: m}
}

// NewMapping returns an empty mapping node.
func NewMapping() *Node {
	return &Node{Kind: Mapping, children: make(map[string]*Node)}
}

// NewSequence wraps the given items in a sequence node.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: Sequence, Items: items}
}

// Put appends a child under key, keeping source order.
// Adding InterpRootKey flags the mapping as an interpolation group.
func (n *Node) Put(key string, child *Node) error {
	if n.Kind != Mapping {
		return fmt.Errorf("cannot add key %q to a %s node", key, n.Kind)
	}
	if _, dup := n.children[key]; dup {
		return fmt.Errorf("duplicate key %q", key)
	}
	n.keys = append(n.keys, key)
	n.children[key] = child
	if key == InterpRootKey {
		n.InterpGroup = true
	}
	return nil
}

// Keys returns the mapping's keys in source order.
func (n *Node) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Child returns the mapping child for key.
func (n *Node) Child(key string) (*Node, bool) {
	if n.Kind != Mapping {
		return nil, false
	}
	c, ok := n.children[key]
	return c, ok
}

// At walks a key path through nested mappings.
func (n *Node) At(path []string) (*Node, bool) {
	cur := n
	for _, key := range path {
		next, ok := cur.Child(key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Walk visits every node depth-first in source order. The visitor receives
// the node's key path (sequence indices stringified). Returning an error
// aborts the walk.
func (n *Node) Walk(fn func(path []string, n *Node) error) error {
	return walk(n, nil, fn)
}

func walk(n *Node, path []string, fn func(path []string, n *Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	switch n.Kind {
	case Mapping:
		for _, key := range n.keys {
			child := append(append([]string(nil), path...), key)
			if err := walk(n.children[key], child, fn); err != nil {
				return err
			}
		}
	case Sequence:
		for i, item := range n.Items {
			child := append(append([]string(nil), path...), fmt.Sprint(i))
			if err := walk(item, child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolveLink dereferences a linked-message path against the tree root.
// The target must exist, be a plain message leaf, not sit inside a
// component-interpolation group, and not itself be a link (no chains).
func ResolveLink(root *Node, path []string) (*Node, error) {
	joined := strings.Join(path, ".")

	cur := root
	for i, key := range path {
		next, ok := cur.Child(key)
		if !ok {
			return nil, fmt.Errorf("link target %q does not exist (missing key %q)", joined, key)
		}
		if i == len(path)-1 && cur.InterpGroup {
			return nil, fmt.Errorf("link target %q is part of a component-interpolation group", joined)
		}
		cur = next
	}

	if cur.Kind != Leaf {
		return nil, fmt.Errorf("link target %q is a %s, not a message", joined, cur.Kind)
	}
	if _, isLink, err := cur.Msg.LinkPath(); err != nil {
		return nil, fmt.Errorf("link target %q: %w", joined, err)
	} else if isLink {
		return nil, fmt.Errorf("link target %q is itself a link: chained links are not allowed", joined)
	}
	return cur, nil
}
