package vcard

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrParse marks input that could not be read as a vCard. Callers exclude the
// offending file from the corpus rather than aborting a run.
var ErrParse = errors.New("malformed vcard")

// Parse reads a single vCard 3.0 record from text. Property parameters
// (EMAIL;TYPE=HOME:...) are tolerated and dropped; unknown properties are
// ignored.
func Parse(text string) (*Card, error) {
	lines := unfold(text)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	begun := false
	card := &Card{}
	for _, line := range lines {
		name, value, ok := splitProperty(line)
		if !ok {
			continue
		}

		if !begun {
			if name == "BEGIN" && strings.EqualFold(value, "VCARD") {
				begun = true
			}
			continue
		}

		switch name {
		case "END":
			if strings.EqualFold(value, "VCARD") {
				return card, nil
			}
		case "FN":
			if card.FormattedName == "" {
				card.FormattedName = unescape(value)
			}
		case "N":
			if card.Name == nil {
				for _, part := range strings.Split(value, ";") {
					card.Name = append(card.Name, unescape(part))
				}
			}
		case "EMAIL":
			card.Emails = append(card.Emails, unescape(value))
		case "TEL":
			card.Phones = append(card.Phones, unescape(value))
		case "ADR":
			card.Addresses = append(card.Addresses, unescape(value))
		case "ORG":
			if card.Org == "" {
				card.Org = unescape(value)
			}
		case "TITLE":
			if card.Title == "" {
				card.Title = unescape(value)
			}
		case "NOTE":
			if card.Note == "" {
				card.Note = unescape(value)
			}
		case "UID":
			if card.UID == "" {
				card.UID = unescape(value)
			}
		}
	}

	if !begun {
		return nil, fmt.Errorf("%w: missing BEGIN:VCARD", ErrParse)
	}
	return nil, fmt.Errorf("%w: missing END:VCARD", ErrParse)
}

// Serialize renders the card as vCard 3.0 text. It succeeds for any card the
// merge planner can produce.
func Serialize(c *Card) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\r\n")
	b.WriteString("VERSION:3.0\r\n")

	if c.HasFormattedName() {
		writeProperty(&b, "FN", c.FormattedName)
	}
	if len(c.Name) > 0 {
		parts := make([]string, len(c.Name))
		for i, p := range c.Name {
			parts[i] = escape(p)
		}
		fmt.Fprintf(&b, "N:%s\r\n", strings.Join(parts, ";"))
	}
	for _, v := range c.Emails {
		writeProperty(&b, "EMAIL", v)
	}
	for _, v := range c.Phones {
		writeProperty(&b, "TEL", v)
	}
	// ADR keeps its structural semicolons between components.
	for _, v := range c.Addresses {
		fmt.Fprintf(&b, "ADR:%s\r\n", escape(v))
	}
	if c.Org != "" {
		writeProperty(&b, "ORG", c.Org)
	}
	if c.Title != "" {
		writeProperty(&b, "TITLE", c.Title)
	}
	if c.Note != "" {
		writeProperty(&b, "NOTE", c.Note)
	}
	if c.UID != "" {
		writeProperty(&b, "UID", c.UID)
	}

	b.WriteString("END:VCARD\r\n")
	return b.String()
}

// Load reads and parses the vCard at path, recording the source path on the
// card.
func Load(path string) (*Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	card, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	card.Path = path
	return card, nil
}

// Write serializes the card to path, replacing any existing file.
func Write(path string, c *Card) error {
	return os.WriteFile(path, []byte(Serialize(c)), 0644)
}

// unfold joins continuation lines (lines beginning with space or tab) onto
// their predecessor and strips line terminators.
func unfold(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var lines []string
	for _, l := range raw {
		if (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += strings.TrimLeft(l, " \t")
			continue
		}
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// splitProperty splits "NAME;PARAM=X:VALUE" into the upper-cased property name
// (parameters dropped) and the raw value.
func splitProperty(line string) (name, value string, ok bool) {
	head, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	name, _, _ = strings.Cut(head, ";")
	name = strings.ToUpper(strings.TrimSpace(name))
	// Grouped properties like item1.EMAIL keep their base name.
	if _, base, found := strings.Cut(name, "."); found {
		name = base
	}
	return name, value, true
}

// writeProperty emits one scalar property, escaping semicolons along with the
// usual characters. N and ADR values carry structural semicolons and are
// written with plain escape instead.
func writeProperty(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "%s:%s\r\n", name, scalarEscaper.Replace(value))
}

var (
	escaper       = strings.NewReplacer("\n", "\\n", ",", "\\,")
	scalarEscaper = strings.NewReplacer("\n", "\\n", ",", "\\,", ";", "\\;")
	unescaper     = strings.NewReplacer("\\n", "\n", "\\N", "\n", "\\,", ",", "\\;", ";")
)

func escape(s string) string   { return escaper.Replace(s) }
func unescape(s string) string { return unescaper.Replace(s) }
