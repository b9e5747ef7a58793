// Package component reads the embedded message block out of component
// source files and writes the autogenerated per-locale translations block
// back into them.
//
// A component file carries its source messages between <i18n> and </i18n>
// delimiters (YAML body, same dialect as the locale files). The tool owns
// a second, generated block between <i18n-translations> and
// </i18n-translations> holding a JSON mapping from locale code to the
// component's translated messages; it is appended on first write and
// replaced in place afterwards.
package component

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

const (
	openTag       = "<i18n>"
	closeTag      = "</i18n>"
	generatedOpen = "<i18n-translations>"
	generatedEnd  = "</i18n-translations>"
)

// Name derives the component name from its file path.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Extract returns the source message block body. A file without a block
// returns ok=false; an opened but unclosed block or a second block is a
// configuration error.
func Extract(src []byte) (body []byte, ok bool, err error) {
	start := bytes.Index(src, []byte(openTag))
	if start < 0 {
		return nil, false, nil
	}
	rest := src[start+len(openTag):]
	end := bytes.Index(rest, []byte(closeTag))
	if end < 0 {
		return nil, false, fmt.Errorf("embedded %s block is missing its closing %s", openTag, closeTag)
	}
	if bytes.Contains(rest[end+len(closeTag):], []byte(openTag)) {
		return nil, false, fmt.Errorf("unexpected second %s block", openTag)
	}
	return rest[:end], true, nil
}

// WriteTranslations replaces the generated translations block, or appends
// one if the file has none yet. Literal < characters inside the payload
// are escaped so the delimiters stay unambiguous for downstream parsers.
func WriteTranslations(src, payload []byte) ([]byte, error) {
	// Payload is JSON; a < can only occur inside a string, where the
	// \u escape is valid.
	escaped := bytes.ReplaceAll(payload, []byte("<"), []byte("\\u003c"))
	block := []byte(generatedOpen + "\n" + strings.TrimRight(string(escaped), "\n") + "\n" + generatedEnd)

	start := bytes.Index(src, []byte(generatedOpen))
	if start < 0 {
		out := bytes.TrimRight(src, "\n")
		out = append(out, '\n', '\n')
		out = append(out, block...)
		out = append(out, '\n')
		return out, nil
	}

	rest := src[start+len(generatedOpen):]
	end := bytes.Index(rest, []byte(generatedEnd))
	if end < 0 {
		return nil, fmt.Errorf("generated %s block is missing its closing %s", generatedOpen, generatedEnd)
	}

	var out []byte
	out = append(out, src[:start]...)
	out = append(out, block...)
	out = append(out, rest[end+len(generatedEnd):]...)
	return out, nil
}

// ComposeLocales renders the per-locale JSON mapping for one component
// from already-emitted subtree documents, locale keys in alphabetical
// order.
func ComposeLocales(byLocale map[string][]byte) []byte {
	codes := make([]string, 0, len(byLocale))
	for code := range byLocale {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var b bytes.Buffer
	b.WriteString("{")
	for i, code := range codes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString("\n    \"" + code + "\": ")
		b.WriteString(reindent(byLocale[code]))
	}
	if len(codes) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.Bytes()
}

// reindent shifts a rendered JSON document one level deeper.
func reindent(doc []byte) string {
	trimmed := strings.TrimRight(string(doc), "\n")
	return strings.ReplaceAll(trimmed, "\n", "\n    ")
}
