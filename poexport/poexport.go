// Package poexport renders an exchange payload and its current
// translations as a gettext PO file, for translators who review offline
// with PO tooling. The export is one-way: the platform payload stays the
// source of truth.
package poexport

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/localehub/trex/exchange"
	"github.com/localehub/trex/mergetree"
)

// Entry is one message pair in the export.
type Entry struct {
	// ExtractedComments become "#." lines (developer comments).
	ExtractedComments []string
	// References become "#:" lines (the message's key path).
	References []string
	// MsgID is the exchange-encoded source string.
	MsgID string
	// MsgStr is the native-encoded translation, empty when untranslated.
	MsgStr string
}

// File is a renderable PO export.
type File struct {
	Header  *Entry
	Entries []*Entry
}

// Build pairs the source strings of an exchange tree with the current
// translations of a merge tree.
func Build(src *exchange.Tree, mt *mergetree.Tree) (*File, error) {
	f := &File{Header: makeHeader(mt.Locale().Code)}
	if err := collect(src, nil, mt, f); err != nil {
		return nil, err
	}
	return f, nil
}

func collect(node *exchange.Tree, path []string, mt *mergetree.Tree, f *File) error {
	if node.IsLeaf() {
		dotted := strings.Join(path, ".")
		translated, err := mt.Node(path...).Message()
		if err != nil {
			return fmt.Errorf("at %q: %w", dotted, err)
		}
		msgstr, err := translated.Native()
		if err != nil {
			return fmt.Errorf("at %q: %w", dotted, err)
		}

		entry := &Entry{
			References: []string{dotted},
			MsgID:      node.Leaf().String,
			MsgStr:     msgstr,
		}
		if c := node.Leaf().DeveloperComment; c != "" {
			entry.ExtractedComments = []string{c}
		}
		f.Entries = append(f.Entries, entry)
		return nil
	}

	for _, key := range node.Keys() {
		child, _ := node.Child(key)
		if err := collect(child, append(path, key), mt, f); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns (total, translated) entry counts.
func (f *File) Stats() (total, translated int) {
	for _, e := range f.Entries {
		total++
		if e.MsgStr != "" {
			translated++
		}
	}
	return
}

// Write renders the export in GNU gettext PO format.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if f.Header != nil {
		writeEntry(bw, f.Header)
	}
	for _, e := range f.Entries {
		fmt.Fprintln(bw)
		writeEntry(bw, e)
	}
	return bw.Flush()
}

// WriteFile renders the export to disk.
func (f *File) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return f.Write(out)
}

func writeEntry(w *bufio.Writer, e *Entry) {
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if e.MsgID == "" && e.MsgStr != "" {
		// Header entry: msgid "" followed by the metadata block.
		fmt.Fprintf(w, "msgid \"\"\n")
		fmt.Fprintf(w, "msgstr \"\"\n")
		for _, line := range strings.Split(strings.TrimRight(e.MsgStr, "\n"), "\n") {
			fmt.Fprintf(w, "%s\n", quote(line+"\n"))
		}
		return
	}
	fmt.Fprintf(w, "msgid %s\n", quote(e.MsgID))
	fmt.Fprintf(w, "msgstr %s\n", quote(e.MsgStr))
}

// quote produces a PO-style quoted string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return `"` + s + `"`
}

func makeHeader(langCode string) *Entry {
	now := time.Now().UTC().Format("2006-01-02 15:04+0000")
	fields := []string{
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
		"Language: " + langCode,
		"PO-Revision-Date: " + now,
		"X-Generator: trex",
	}
	return &Entry{MsgStr: strings.Join(fields, "\n") + "\n"}
}
