package ai

import (
	"fmt"
	"strings"

	"github.com/shanehull/asxreport/internal/types"
)

const systemInstruction = `
# [INSTRUCTION]

You are a financial analyst writing the morning brief for an ASX focused investor.

You are given the market sensitive announcements lodged on the ASX today and on the previous business day. Each line has the ASX code, the headline, and the change of the prior trading session from open to close (O-C) and from low to high (H-L). You do not have the announcement documents.

---

# [RULES]

- Work only from the headlines and numbers provided. Do not invent figures, prices or terms that are not in the input.
- The summary must be 3-5 bullet points covering the themes of the day (e.g. results season, capital raisings, takeovers, drilling results, trading halts).
- Highlights pick out individual announcements that an investor should open first. Favour corporate actions (M&A, schemes of arrangement, rights issues, spin-offs, recapitalisations, administrations) and large moves in the prior session.
- Use the ASX code exactly as given for the "symbol" field.
- Keep each note to a single sentence.
- Use Australian English.
`

var userPromptTemplate = `
Market sensitive announcements (%d):
---
%s
---
`

func formatChange(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func buildUserPrompt(table types.ReportTable) string {
	lines := make([]string, 0, len(table))
	for _, a := range table {
		lines = append(lines, fmt.Sprintf("%s | %s | O-C %s | H-L %s",
			a.Symbol,
			a.Headline,
			formatChange(a.OCChangePct),
			formatChange(a.HLChangePct),
		))
	}

	return fmt.Sprintf(userPromptTemplate, len(table), strings.Join(lines, "\n"))
}
