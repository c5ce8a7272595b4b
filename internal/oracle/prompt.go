package oracle

import (
	"fmt"
	"strings"
)

// BuildPrompt constructs the assessment prompt: the obligation, the ranked
// candidates with their provisions, and the required output contract.
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are a compliance analyst for a behavioral-health organization. ")
	b.WriteString("Determine whether the regulatory obligation below is addressed by any of the candidate internal policies.\n\n")

	fmt.Fprintf(&b, "OBLIGATION [%s]:\n%s\n", req.Obligation.Citation, req.Obligation.Requirement)
	if len(req.Obligation.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(req.Obligation.Topics, ", "))
	}

	b.WriteString("\nCANDIDATE POLICIES (ranked by match score):\n")
	for i, cand := range req.Candidates {
		fmt.Fprintf(&b, "\n%d. Policy %s: %s (match score %d)\n", i+1, cand.PolicyNumber, cand.Title, cand.Score)
		for _, prov := range cand.Provisions {
			if prov.Section != "" {
				fmt.Fprintf(&b, "   [%s] %s\n", prov.Section, prov.Text)
			} else {
				fmt.Fprintf(&b, "   - %s\n", prov.Text)
			}
		}
	}

	b.WriteString(`
Respond with exactly one JSON object and no other text:
{
  "status": "COVERED" | "PARTIAL" | "GAP" | "CONFLICTING",
  "confidence": "high" | "medium" | "low",
  "covering_policy_number": "<policy number, or null if status is GAP>",
  "obligation_span": "<the obligation phrase that drove your judgment>",
  "provision_span": "<the provision phrase that addresses it, or null>",
  "gap_detail": "<what is missing, or null>",
  "recommended_policy": "<which policy should absorb this requirement, or null>",
  "reasoning": "<one or two sentences>"
}

Rules:
- COVERED only when a specific provision fully addresses the obligation.
- PARTIAL when a policy addresses the topic but misses requirements.
- CONFLICTING when a policy contradicts the obligation.
- GAP when no candidate addresses the obligation; covering_policy_number must be null.
- Use the policy number string, never the list position.`)

	return b.String()
}
