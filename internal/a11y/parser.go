package a11y

import (
	"errors"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// ErrTreeTooSmall is returned when a captured accessibility tree is
// implausibly small to have come from a real desktop session.
var ErrTreeTooSmall = errors.New("accessibility tree too small")

// minTreeBytes below this size a capture is treated as a failed/partial dump.
const minTreeBytes = 16

// rawShortcut is an intermediate name/keyshortcuts pair before normalization.
type rawShortcut struct {
	name, keyshortcuts string
}

// ParseAndExtract extracts shortcut declarations from an AT-SPI-style XML
// tree dump, falling back to a tolerant regex scan if the XML does not
// parse cleanly.
func ParseAndExtract(xml string) ([]Shortcut, error) {
	if len(strings.TrimSpace(xml)) < minTreeBytes {
		return nil, ErrTreeTooSmall
	}

	raws, err := parseXML(xml)
	if err != nil || len(raws) == 0 {
		raws = parseRegex(xml)
	}

	shortcuts := make([]Shortcut, 0, len(raws))
	for _, r := range raws {
		shortcuts = append(shortcuts, NewShortcut(r.name, r.keyshortcuts))
	}
	return shortcuts, nil
}

func parseXML(xml string) ([]rawShortcut, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, err
	}

	var out []rawShortcut
	for _, el := range doc.FindElements("//*") {
		name := el.SelectAttrValue("name", "")
		keys := findKeyshortcutsAttr(el)
		if name != "" && keys != "" {
			out = append(out, rawShortcut{name: name, keyshortcuts: keys})
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no shortcuts found")
	}
	return out, nil
}

// findKeyshortcutsAttr matches a bare "keyshortcuts" attribute, a namespaced
// "attr:keyshortcuts", or any attribute ending in ":keyshortcuts".
func findKeyshortcutsAttr(el *etree.Element) string {
	for _, attr := range el.Attr {
		if attr.Key == "keyshortcuts" || strings.HasSuffix(attr.Key, ":keyshortcuts") {
			return attr.Value
		}
	}
	return ""
}

var (
	reNameThenKeys = regexp.MustCompile(`name="([^"]*)"[^>]*?keyshortcuts="([^"]*)"`)
	reKeysThenName = regexp.MustCompile(`keyshortcuts="([^"]*)"[^>]*?name="([^"]*)"`)
)

func parseRegex(xml string) []rawShortcut {
	var out []rawShortcut
	for _, m := range reNameThenKeys.FindAllStringSubmatch(xml, -1) {
		out = append(out, rawShortcut{name: m[1], keyshortcuts: m[2]})
	}
	for _, m := range reKeysThenName.FindAllStringSubmatch(xml, -1) {
		out = append(out, rawShortcut{name: m[2], keyshortcuts: m[1]})
	}
	return out
}
