package vcard

import (
	"regexp"
	"strings"
)

// Card is one contact record loaded from a single .vcf file.
type Card struct {
	FormattedName string   // FN
	Name          []string // N components: family, given, additional, prefix, suffix
	Emails        []string // EMAIL, in file order
	Phones        []string // TEL
	Addresses     []string // ADR, raw component strings
	Org           string
	Title         string
	Note          string
	UID           string
	Path          string // source file this card was loaded from; not serialized
}

func (c *Card) HasFormattedName() bool {
	return strings.TrimSpace(c.FormattedName) != ""
}

// HasContactInfo reports whether the card carries at least one email, phone
// number or postal address.
func (c *Card) HasContactInfo() bool {
	return len(c.Emails) > 0 || len(c.Phones) > 0 || len(c.Addresses) > 0
}

// DisplayName returns the name used for comparison and presentation.
// Cards without an FN get a name synthesized from their first email so that
// every card in a corpus has a non-empty comparison name.
func (c *Card) DisplayName() string {
	if c.HasFormattedName() {
		return c.FormattedName
	}
	if len(c.Emails) > 0 {
		if name := GuessNameFromEmail(c.Emails[0]); name != "" {
			return name
		}
		return c.Emails[0]
	}
	return ""
}

var localPartSep = regexp.MustCompile(`[._-]+`)

// GuessNameFromEmail derives a human-looking name from the local part of an
// email address: "jane.doe@x.com" becomes "Jane Doe".
func GuessNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := localPartSep.Split(local, -1)
	var words []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		words = append(words, strings.ToUpper(p[:1])+strings.ToLower(p[1:]))
	}
	return strings.Join(words, " ")
}
