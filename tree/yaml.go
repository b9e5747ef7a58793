package tree

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/localehub/trex/message"
)

// Comments holds the developer comments captured alongside a parsed tree.
// They ride out-of-band: comment text is never part of the value tree.
type Comments struct {
	// Inline maps a dotted key path to the comment found directly above
	// that key in the source file.
	Inline map[string]string
	// Named maps a key name to its entry in the top-of-file comment
	// block of "key: comment" lines.
	Named map[string]string
}

// NewComments returns an empty comment set.
func NewComments() *Comments {
	return &Comments{
		Inline: make(map[string]string),
		Named:  make(map[string]string),
	}
}

// ParseFile reads and parses a native-format YAML message file.
func ParseFile(path string) (*Node, *Comments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	n, c, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, c, nil
}

// Parse parses native-format YAML data into a message tree plus its
// developer comments. The yaml.v3 node API preserves comment trivia, so
// comments above keys are captured without a second tolerant parse.
func Parse(data []byte) (*Node, *Comments, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing YAML: %w", err)
	}

	comments := NewComments()
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewMapping(), comments, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("root must be a mapping, got %s", kindName(root.Kind))
	}

	// Comments before the very first key may land on the document node.
	if doc.HeadComment != "" {
		extractNamed(doc.HeadComment, comments)
	}
	if root.HeadComment != "" {
		extractNamed(root.HeadComment, comments)
	}

	n, err := fromMapping(root, "", comments, true)
	if err != nil {
		return nil, nil, err
	}
	return n, comments, nil
}

// namedComment matches one "key: comment" line of the top-of-file block.
var namedComment = regexp.MustCompile(`^([A-Za-z0-9_-]+):\s+(.+)$`)

func fromMapping(node *yaml.Node, prefix string, comments *Comments, top bool) (*Node, error) {
	out := NewMapping()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		key := keyNode.Value
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		head := keyNode.HeadComment
		if top && i == 0 {
			// The top-of-file "key: comment" block attaches to the first
			// key; named lines are peeled off, the rest stays inline.
			head = extractNamed(head, comments)
		}
		if text := cleanComment(head); text != "" {
			comments.Inline[path] = text
		}

		child, err := fromValue(valNode, path, comments)
		if err != nil {
			return nil, err
		}
		if err := out.Put(key, child); err != nil {
			return nil, fmt.Errorf("at %q: %w", path, err)
		}
	}
	return out, nil
}

func fromValue(node *yaml.Node, path string, comments *Comments) (*Node, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return fromMapping(node, path, comments, false)

	case yaml.SequenceNode:
		seq := NewSequence()
		for i, item := range node.Content {
			if item.Kind == yaml.SequenceNode {
				return nil, fmt.Errorf("at %q: sequences may not nest directly inside sequences", path)
			}
			child, err := fromValue(item, fmt.Sprintf("%s.%d", path, i), comments)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil

	case yaml.ScalarNode:
		if node.Tag != "!!str" {
			return nil, fmt.Errorf("at %q: leaf must be a string, got %s value %q", path, node.Tag, node.Value)
		}
		msg, err := message.ParseNative(node.Value)
		if err != nil {
			return nil, fmt.Errorf("at %q: %w", path, err)
		}
		return NewLeaf(msg), nil

	default:
		return nil, fmt.Errorf("at %q: unsupported YAML node kind %s", path, kindName(node.Kind))
	}
}

// extractNamed peels "key: comment" lines out of a head comment into the
// named map and returns the remaining comment text.
func extractNamed(head string, comments *Comments) string {
	var rest []string
	for _, line := range strings.Split(head, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		if m := namedComment.FindStringSubmatch(line); m != nil {
			comments.Named[m[1]] = m[2]
			continue
		}
		rest = append(rest, line)
	}
	return strings.Join(rest, "\n")
}

// cleanComment strips comment markers and joins lines with single spaces.
func cleanComment(head string) string {
	var lines []string
	for _, line := range strings.Split(head, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
