package interp

import (
	"strings"
	"testing"

	"github.com/localehub/trex/tree"
)

func group(t *testing.T, yamlSrc string) *tree.Node {
	t.Helper()
	root, _, err := tree.Parse([]byte(yamlSrc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g, ok := root.Child("g")
	if !ok {
		t.Fatal("sample must define key g")
	}
	return g
}

func TestBuildSimpleGroup(t *testing.T) {
	g := group(t, `
g:
  full: Click {here} to continue.
  here: here
`)
	root, err := Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if root.Key != "full" || len(root.Children) != 1 {
		t.Fatalf("root = %q with %d children, want full with 1", root.Key, len(root.Children))
	}
	if root.Children[0].Key != "here" || root.Children[0].Parent != root {
		t.Fatal("here should be a direct child of full")
	}
}

func TestBuildNestedGroup(t *testing.T) {
	g := group(t, `
g:
  full: Read the {terms} before continuing.
  terms: terms of {service}
  service: service
`)
	root, err := Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("full children = %d, want 1", len(root.Children))
	}
	terms := root.Children[0]
	if terms.Key != "terms" || len(terms.Children) != 1 || terms.Children[0].Key != "service" {
		t.Fatalf("nesting wrong: full -> %q -> %v", terms.Key, terms.Children)
	}
}

func TestBuildFailures(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "orphan member",
			src:  "g:\n  full: No tokens here.\n  stray: text\n",
			want: "orphaned",
		},
		{
			name: "ambiguous member",
			src:  "g:\n  full: One {x} and again {both}.\n  x: x in {both}\n  both: b\n",
			want: "ambiguous",
		},
		{
			name: "lone full",
			src:  "g:\n  full: Nothing nested.\n",
			want: "no members",
		},
		{
			name: "link inside group",
			src:  "g:\n  full: Click {here}.\n  here: \"@:other.key\"\n",
			want: "link",
		},
		{
			name: "non-leaf member",
			src:  "g:\n  full: Click {here}.\n  here:\n    nested: x\n",
			want: "not a message",
		},
	}
	for _, tc := range cases {
		_, err := Build(group(t, tc.src))
		if err == nil {
			t.Fatalf("%s: Build should fail", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q should mention %q", tc.name, err, tc.want)
		}
	}
}

func TestCommentsQuoteExpandedContext(t *testing.T) {
	g := group(t, `
g:
  full: Read the {terms} before continuing.
  terms: terms of {service}
  service: service
`)
	root, err := Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	comments := root.Comments()

	if got := comments["terms"]; !strings.Contains(got, `"Read the terms of {service} before continuing."`) {
		t.Fatalf("terms comment should quote the expanded full text, got %q", got)
	}
	// The grandchild sees the further-expanded context.
	if got := comments["service"]; !strings.Contains(got, `"Read the terms of service before continuing."`) {
		t.Fatalf("service comment should quote the doubly expanded text, got %q", got)
	}
	// full lists its descendant leaves (terms has children, service is the leaf).
	if got := comments["full"]; !strings.Contains(got, "{service}") {
		t.Fatalf("full comment should mention the leaf fragment, got %q", got)
	}
}

func TestCommentsSingleLeafChild(t *testing.T) {
	g := group(t, `
g:
  full: Click {here} to continue.
  here: here
`)
	root, err := Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	comments := root.Comments()
	if got := comments["full"]; !strings.Contains(got, `{here}`) || !strings.Contains(got, `"here"`) {
		t.Fatalf("full comment should name the single child and quote it, got %q", got)
	}
}

func TestCommentsUseFinalCategoryVariant(t *testing.T) {
	g := group(t, `
g:
  full: You have {count}.
  count: "{n} item | {n} items"
`)
	root, err := Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	comments := root.Comments()
	if got := comments["count"]; !strings.Contains(got, `"You have {n} items."`) {
		t.Fatalf("comment should expand with the plural (last) variant, got %q", got)
	}
}
