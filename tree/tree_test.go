package tree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `# title: Shown in the browser tab
# farewell: Shown at logout

greeting: Hello {name}
items: "{n} item | {n} items"
# Error strings live here.
errors:
  generic: Something went wrong
  alias: "@:errors.generic"
faq:
  - question: How?
    answer: Like this
  - question: Why?
    answer: Because
banner:
  full: Click {here}.
  here: here
`

func mustParse(t *testing.T, data string) (*Node, *Comments) {
	t.Helper()
	n, c, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return n, c
}

func TestParseShapes(t *testing.T) {
	root, _ := mustParse(t, sample)

	if root.Kind != Mapping {
		t.Fatalf("root kind = %s, want mapping", root.Kind)
	}
	wantKeys := []string{"greeting", "items", "errors", "faq", "banner"}
	if diff := cmp.Diff(wantKeys, root.Keys()); diff != "" {
		t.Fatalf("root keys mismatch (-want +got):\n%s", diff)
	}

	greeting, ok := root.At([]string{"greeting"})
	if !ok || greeting.Kind != Leaf {
		t.Fatal("greeting should be a leaf")
	}
	if greeting.Msg.First() != "Hello {name}" {
		t.Fatalf("greeting = %q", greeting.Msg.First())
	}

	items, _ := root.At([]string{"items"})
	if items.Msg.Len() != 2 {
		t.Fatalf("items variants = %d, want 2", items.Msg.Len())
	}

	faq, _ := root.At([]string{"faq"})
	if faq.Kind != Sequence || len(faq.Items) != 2 {
		t.Fatalf("faq should be a 2-element sequence, got %s/%d", faq.Kind, len(faq.Items))
	}

	banner, _ := root.At([]string{"banner"})
	if !banner.InterpGroup {
		t.Fatal("banner contains a full key and should be an interpolation group")
	}
	errs, _ := root.At([]string{"errors"})
	if errs.InterpGroup {
		t.Fatal("errors should not be an interpolation group")
	}
}

func TestParseComments(t *testing.T) {
	_, c := mustParse(t, sample)

	if got := c.Named["title"]; got != "Shown in the browser tab" {
		t.Fatalf("named title comment = %q", got)
	}
	if got := c.Named["farewell"]; got != "Shown at logout" {
		t.Fatalf("named farewell comment = %q", got)
	}
	if got := c.Inline["errors"]; got != "Error strings live here." {
		t.Fatalf("inline errors comment = %q", got)
	}
}

func TestParseRejectsBadLeaves(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"non-string leaf", "count: 3"},
		{"nested sequence", "a:\n  - - x\n"},
		{"three plural forms", "a: x | y | z"},
		{"root sequence", "- a\n- b\n"},
	}
	for _, tc := range cases {
		if _, _, err := Parse([]byte(tc.in)); err == nil {
			t.Fatalf("%s: Parse(%q) should fail", tc.name, tc.in)
		}
	}
}

func TestWalkPaths(t *testing.T) {
	root, _ := mustParse(t, sample)

	var leafPaths []string
	err := root.Walk(func(path []string, n *Node) error {
		if n.Kind == Leaf {
			leafPaths = append(leafPaths, strings.Join(path, "."))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{
		"greeting", "items",
		"errors.generic", "errors.alias",
		"faq.0.question", "faq.0.answer", "faq.1.question", "faq.1.answer",
		"banner.full", "banner.here",
	}
	if diff := cmp.Diff(want, leafPaths); diff != "" {
		t.Fatalf("leaf paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveLink(t *testing.T) {
	root, _ := mustParse(t, sample)

	target, err := ResolveLink(root, []string{"errors", "generic"})
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if target.Msg.First() != "Something went wrong" {
		t.Fatalf("target = %q", target.Msg.First())
	}

	if _, err := ResolveLink(root, []string{"errors", "missing"}); err == nil {
		t.Fatal("missing target should fail")
	}
	if _, err := ResolveLink(root, []string{"errors"}); err == nil {
		t.Fatal("mapping target should fail")
	}
	// Chained link: alias is itself a link.
	if _, err := ResolveLink(root, []string{"errors", "alias"}); err == nil {
		t.Fatal("chained link should fail")
	}
	// Interpolation-group member as a target.
	if _, err := ResolveLink(root, []string{"banner", "here"}); err == nil {
		t.Fatal("link into an interpolation group should fail")
	}
}
