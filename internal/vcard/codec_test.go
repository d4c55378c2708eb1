package vcard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCard = "BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"FN:Jane Doe\r\n" +
	"N:Doe;Jane;;;\r\n" +
	"EMAIL;TYPE=INTERNET:jane@x.com\r\n" +
	"EMAIL:jane.doe@work.example\r\n" +
	"TEL;TYPE=CELL:+1 555 0100\r\n" +
	"ORG:Example Corp\r\n" +
	"TITLE:Engineer\r\n" +
	"NOTE:Met at the conf\\, 2023\r\n" +
	"UID:abc-123\r\n" +
	"END:VCARD\r\n"

func TestParse(t *testing.T) {
	card, err := Parse(sampleCard)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", card.FormattedName)
	assert.Equal(t, []string{"Doe", "Jane", "", "", ""}, card.Name)
	assert.Equal(t, []string{"jane@x.com", "jane.doe@work.example"}, card.Emails)
	assert.Equal(t, []string{"+1 555 0100"}, card.Phones)
	assert.Equal(t, "Example Corp", card.Org)
	assert.Equal(t, "Engineer", card.Title)
	assert.Equal(t, "Met at the conf, 2023", card.Note)
	assert.Equal(t, "abc-123", card.UID)
}

func TestParseFoldedLines(t *testing.T) {
	text := "BEGIN:VCARD\nVERSION:3.0\nFN:Jane\n Doe\nNOTE:line one\n\tand more\nEND:VCARD\n"
	card, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "JaneDoe", card.FormattedName)
	assert.Equal(t, "line oneand more", card.Note)
}

func TestParseGroupedProperties(t *testing.T) {
	text := "BEGIN:VCARD\nVERSION:3.0\nFN:Jane\nitem1.EMAIL;TYPE=HOME:jane@x.com\nEND:VCARD\n"
	card, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@x.com"}, card.Emails)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"not a vcard", "hello world\n"},
		{"missing end", "BEGIN:VCARD\nFN:Jane\n"},
		{"only blank", "\n\n\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	card, err := Parse(sampleCard)
	require.NoError(t, err)

	again, err := Parse(Serialize(card))
	require.NoError(t, err)

	assert.Equal(t, card.FormattedName, again.FormattedName)
	assert.Equal(t, card.Emails, again.Emails)
	assert.Equal(t, card.Phones, again.Phones)
	assert.Equal(t, card.Note, again.Note)
	assert.Equal(t, card.UID, again.UID)
}

func TestSerializeEscapesSemicolons(t *testing.T) {
	card := &Card{
		FormattedName: "Jane Doe",
		Note:          "call back; urgent",
		Addresses:     []string{";;123 Main St;Springfield;;;"},
	}

	text := Serialize(card)
	assert.Contains(t, text, "NOTE:call back\\; urgent")
	assert.Contains(t, text, "ADR:;;123 Main St;Springfield;;;")

	again, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, card.Note, again.Note)
	assert.Equal(t, card.Addresses, again.Addresses)
}

func TestLoadAndWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jane.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleCard), 0644))

	card, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, card.Path)

	out := filepath.Join(dir, "copy.vcf")
	require.NoError(t, Write(out, card))
	copied, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, card.FormattedName, copied.FormattedName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.vcf"))
	assert.ErrorIs(t, err, ErrParse)
}
