package message

import (
	"fmt"
	"regexp"
	"strings"
)

// LinkMarker prefixes a message whose whole value is a reference to
// another message's key path (e.g. "@:errors.generic").
const LinkMarker = "@:"

var linkPattern = regexp.MustCompile(`^@:([A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]+)*)$`)

// LinkPath returns the referenced key path when the message's sole variant
// is exactly a link marker. Links are only ever whole-message and
// single-form: a pluralized message containing the marker anywhere is an
// error rather than a link.
func (m Message) LinkPath() ([]string, bool, error) {
	if m.Len() == 1 {
		sub := linkPattern.FindStringSubmatch(m.First())
		if sub == nil {
			return nil, false, nil
		}
		return strings.Split(sub[1], "."), true, nil
	}
	for _, v := range m.variants {
		if strings.Contains(v, LinkMarker) {
			return nil, false, fmt.Errorf("link marker in plural variant %q: links must be whole single-form messages", v)
		}
	}
	return nil, false, nil
}
