package dedupe

import (
	"strings"

	"github.com/google/uuid"

	"github.com/agenthands/cardinal/internal/vcard"
)

// Source names the record a merged field's value was taken from.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// Instruction maps a scalar field name (fn, n, org, title, note) to the
// source record that should supply it. A field with no entry falls back to
// default resolution: primary's value if present, else secondary's.
// Multi-valued fields are never restricted by an instruction.
type Instruction map[string]Source

// scalarFields are the field names an instruction may name.
var scalarFields = map[string]bool{
	"fn":    true,
	"n":     true,
	"org":   true,
	"title": true,
	"note":  true,
}

// Merge combines primary and secondary into a new card. It is deterministic
// and total: missing data is handled by omission, never by failure. The
// merged card is a new logical contact with its own UID.
func Merge(primary, secondary *vcard.Card, instr Instruction) *vcard.Card {
	merged := &vcard.Card{
		FormattedName: chooseScalar("fn", primary.FormattedName, secondary.FormattedName, instr),
		Org:           chooseScalar("org", primary.Org, secondary.Org, instr),
		Title:         chooseScalar("title", primary.Title, secondary.Title, instr),
		Note:          chooseScalar("note", primary.Note, secondary.Note, instr),
		UID:           uuid.New().String(),
	}

	switch instr["n"] {
	case SourcePrimary:
		merged.Name = cloneParts(primary.Name)
	case SourceSecondary:
		merged.Name = cloneParts(secondary.Name)
	default:
		if len(primary.Name) > 0 {
			merged.Name = cloneParts(primary.Name)
		} else {
			merged.Name = cloneParts(secondary.Name)
		}
	}

	// Multi-valued fields are always the union of both cards: union is
	// lossless, so no instruction can narrow it.
	merged.Emails = union(primary.Emails, secondary.Emails, strings.ToLower)
	merged.Phones = union(primary.Phones, secondary.Phones, nil)
	merged.Addresses = union(primary.Addresses, secondary.Addresses, nil)

	if !merged.HasFormattedName() && len(merged.Emails) > 0 {
		if name := vcard.GuessNameFromEmail(merged.Emails[0]); name != "" {
			merged.FormattedName = name
		} else {
			merged.FormattedName = merged.Emails[0]
		}
	}

	return merged
}

func chooseScalar(field, primary, secondary string, instr Instruction) string {
	switch instr[field] {
	case SourcePrimary:
		return primary
	case SourceSecondary:
		return secondary
	}
	if primary != "" {
		return primary
	}
	return secondary
}

// union concatenates both value lists preserving first-seen order, dropping
// values whose normalized form was already taken.
func union(primary, secondary []string, normalize func(string) string) []string {
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range append(append([]string{}, primary...), secondary...) {
		key := normalize(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func cloneParts(parts []string) []string {
	if parts == nil {
		return nil
	}
	return append([]string{}, parts...)
}
