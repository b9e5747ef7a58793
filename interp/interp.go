// Package interp reconstructs the nesting of component-interpolation
// groups: sibling messages where one key, "full", carries the surrounding
// text and every other sibling fills a {token} position inside exactly one
// sibling's text.
//
// The tree is recovered from string content in two explicit passes: the
// first indexes which siblings' text contains each key's token, the second
// assigns each key its unique parent, failing on zero or multiple matches.
// The package also generates the translator-facing comments that explain
// how the fragments combine.
package interp

import (
	"fmt"
	"strings"

	"github.com/localehub/trex/message"
	"github.com/localehub/trex/tree"
)

// Node is one member of a component-interpolation group.
type Node struct {
	Key      string
	Msg      message.Message
	Parent   *Node
	Children []*Node
}

// Build recovers the interpolation tree from a sibling group. The group
// node must be a mapping flagged as an interpolation group and all its
// members must be plain message leaves.
func Build(group *tree.Node) (*Node, error) {
	if group.Kind != tree.Mapping || !group.InterpGroup {
		return nil, fmt.Errorf("not a component-interpolation group")
	}

	keys := group.Keys()
	nodes := make(map[string]*Node, len(keys))
	for _, key := range keys {
		child, _ := group.Child(key)
		if child.Kind != tree.Leaf {
			return nil, fmt.Errorf("interpolation member %q is a %s, not a message", key, child.Kind)
		}
		if _, isLink, err := child.Msg.LinkPath(); err != nil {
			return nil, fmt.Errorf("interpolation member %q: %w", key, err)
		} else if isLink {
			return nil, fmt.Errorf("interpolation member %q is a link: links are not allowed inside interpolation groups", key)
		}
		nodes[key] = &Node{Key: key, Msg: child.Msg}
	}

	// First pass: index each key's token against the siblings whose first
	// variant contains it literally.
	containers := make(map[string][]string, len(keys))
	for _, key := range keys {
		if key == tree.InterpRootKey {
			continue
		}
		token := "{" + key + "}"
		for _, sibling := range keys {
			if sibling == key {
				continue
			}
			if strings.Contains(nodes[sibling].Msg.First(), token) {
				containers[key] = append(containers[key], sibling)
			}
		}
	}

	// Second pass: every non-root key gets exactly one parent.
	for _, key := range keys {
		if key == tree.InterpRootKey {
			continue
		}
		switch found := containers[key]; len(found) {
		case 0:
			return nil, fmt.Errorf("interpolation member %q is orphaned: no sibling text contains {%s}", key, key)
		case 1:
			parent := nodes[found[0]]
			nodes[key].Parent = parent
			parent.Children = append(parent.Children, nodes[key])
		default:
			return nil, fmt.Errorf("interpolation member %q is ambiguous: {%s} appears in %s", key, key, strings.Join(found, " and "))
		}
	}

	root := nodes[tree.InterpRootKey]
	if len(root.Children) == 0 {
		return nil, fmt.Errorf("interpolation group has a %q message but no members reference any sibling", tree.InterpRootKey)
	}

	// Parent edges may form a cycle detached from the root; every member
	// has to be reachable from full.
	if got := countReachable(root); got != len(keys) {
		return nil, fmt.Errorf("interpolation group contains a reference cycle: %d of %d members unreachable from %q",
			len(keys)-got, len(keys), tree.InterpRootKey)
	}

	return root, nil
}

func countReachable(n *Node) int {
	count := 1
	for _, c := range n.Children {
		count += countReachable(c)
	}
	return count
}

// Comments generates the translator-facing comment for every group member.
//
// A nested member's comment quotes the surrounding text with its token
// replaced by the member's final-category variant, so translators see the
// plural form the composed message usually renders with; nesting expands
// the context further at each level. A member with children additionally
// describes the fragments that will be inserted into it.
func (root *Node) Comments() map[string]string {
	out := make(map[string]string, countReachable(root))
	out[root.Key] = parentComment(root)

	var walk func(n *Node, context string)
	walk = func(n *Node, context string) {
		for _, c := range n.Children {
			expanded := strings.ReplaceAll(context, "{"+c.Key+"}", c.Msg.Last())
			comment := fmt.Sprintf("This text is inserted in place of {%s} into a richer formatted display that then reads: %q.", c.Key, expanded)
			if len(c.Children) > 0 {
				comment += " " + parentComment(c)
			}
			out[c.Key] = comment
			walk(c, expanded)
		}
	}
	walk(root, root.Msg.Last())
	return out
}

func parentComment(n *Node) string {
	if len(n.Children) == 1 && len(n.Children[0].Children) == 0 {
		only := n.Children[0]
		return fmt.Sprintf("The {%s} placeholder is a separately translated string, currently %q.", only.Key, only.Msg.Last())
	}
	var parts []string
	for _, leaf := range collectLeaves(n) {
		parts = append(parts, fmt.Sprintf("{%s} %q", leaf.Key, leaf.Msg.Last()))
	}
	return "The placeholders are separately translated strings: " + strings.Join(parts, ", ") + "."
}

func collectLeaves(n *Node) []*Node {
	var leaves []*Node
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			leaves = append(leaves, c)
		} else {
			leaves = append(leaves, collectLeaves(c)...)
		}
	}
	return leaves
}
