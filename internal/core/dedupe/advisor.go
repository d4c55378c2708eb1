package dedupe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/core/common"
	"github.com/agenthands/cardinal/internal/llm"
	"github.com/agenthands/cardinal/internal/vcard"
)

// ErrAdvisory marks a failed advisory call. The caller maps it to a decline:
// ambiguity never merges.
var ErrAdvisory = errors.New("advisory decision failed")

// Verdict is the advisory LLM's answer for one candidate pair.
type Verdict struct {
	ShouldMerge bool              `json:"should_merge"`
	Fields      map[string]string `json:"fields"`
}

// Advisor asks an LLM whether a mid-confidence pair should be merged and, if
// so, which record should supply each scalar field.
type Advisor struct {
	LLM llm.Client
	Log *zap.SugaredLogger
}

func NewAdvisor(client llm.Client, log *zap.SugaredLogger) *Advisor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Advisor{LLM: client, Log: log}
}

// Decide returns the verdict and the usable portion of its field choices. Any
// transport or parse failure comes back as ErrAdvisory with ShouldMerge
// false. Unknown field names or source values are dropped from the
// instruction rather than treated as errors.
func (a *Advisor) Decide(ctx context.Context, primary, secondary *vcard.Card, score float64) (Verdict, Instruction, error) {
	prompt := fmt.Sprintf(`You are deciding whether two vCard contacts are duplicates that should be merged.

<CONTACT 1 (primary)>
%s
</CONTACT 1>

<CONTACT 2 (secondary)>
%s
</CONTACT 2>

Similarity score: %.4f

Instructions:
Decide whether these contacts describe the same person and should be merged.
Return a JSON object with key "should_merge" (boolean) and, when merging, key
"fields": an object mapping field names (fn, n, org, title, note) to "primary"
or "secondary", choosing the source whose value looks more complete or
accurate. Omit fields you have no preference for.

Example JSON:
{
  "should_merge": true,
  "fields": {"fn": "primary", "org": "secondary"}
}
`, summarizeCard(primary), summarizeCard(secondary), score)

	response, err := a.LLM.Generate(ctx, prompt)
	if err != nil {
		return Verdict{}, nil, fmt.Errorf("%w: %v", ErrAdvisory, err)
	}

	verdict, err := common.ParseJSON[Verdict](response)
	if err != nil {
		return Verdict{}, nil, fmt.Errorf("%w: %v", ErrAdvisory, err)
	}

	instr := make(Instruction)
	for field, choice := range verdict.Fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if !scalarFields[field] {
			continue
		}
		switch Source(strings.ToLower(strings.TrimSpace(choice))) {
		case SourcePrimary:
			instr[field] = SourcePrimary
		case SourceSecondary:
			instr[field] = SourceSecondary
		}
	}

	a.Log.Infow("advisory verdict",
		"primary", primary.Path,
		"secondary", secondary.Path,
		"score", score,
		"should_merge", verdict.ShouldMerge,
		"fields", instr,
	)

	return verdict, instr, nil
}

// summarizeCard renders the fields the advisory prompt shows for one card.
func summarizeCard(c *vcard.Card) string {
	var b strings.Builder
	write := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
	}
	write("FN", c.FormattedName)
	write("N", strings.Join(c.Name, " "))
	write("EMAIL", strings.Join(c.Emails, ", "))
	write("TEL", strings.Join(c.Phones, ", "))
	write("ADR", strings.Join(c.Addresses, "; "))
	write("ORG", c.Org)
	write("TITLE", c.Title)
	write("NOTE", c.Note)
	if b.Len() == 0 {
		return "(empty card)"
	}
	return b.String()
}
