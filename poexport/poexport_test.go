package poexport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/localehub/trex/exchange"
	"github.com/localehub/trex/locale"
	"github.com/localehub/trex/mergetree"
	"github.com/localehub/trex/message"
	"github.com/localehub/trex/tree"
)

func TestBuildAndWrite(t *testing.T) {
	reg, err := locale.NewRegistry([]string{"de"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	de, _ := reg.Get("de")

	src, comments, err := tree.Parse([]byte(`# Greets the user.
greeting: Hello {name}
farewell: Goodbye
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ex, err := exchange.Restructure(src, comments)
	if err != nil {
		t.Fatalf("Restructure: %v", err)
	}

	mt := mergetree.New(src, de)
	hallo, err := message.New("Hallo {name}")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := mt.Node("greeting").Set(hallo); err != nil {
		t.Fatalf("Set: %v", err)
	}

	f, err := Build(ex, mt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	total, translated := f.Stats()
	if total != 2 || translated != 1 {
		t.Fatalf("Stats = (%d, %d), want (2, 1)", total, translated)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`"Language: de\n"`,
		"#. Greets the user.",
		"#: greeting",
		`msgid "Hello {name}"`,
		`msgstr "Hallo {name}"`,
		`msgid "Goodbye"`,
		`msgstr ""`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
