package assess

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/oracle"
)

// Free-text pattern like `Policy "Medication Management"` that some oracle
// responses use instead of a bare policy number.
var policyNameRe = regexp.MustCompile(`(?i)Policy\s+"?([^"]+)"?`)

// validateVerdict normalizes the verdict in place and returns validation
// errors. Normalizations (always applied):
//   - missing or unknown confidence becomes medium
//   - a purely numeric covering policy reference is treated as a 1-based
//     index into the candidate list; out-of-range resolves to null
//   - a `Policy "<name>"` reference resolves to <name>
//   - GAP forces the covering policy to null regardless of oracle output
//
// Errors (retried upstream):
//   - status outside the oracle's allowed enum
//   - COVERED with no resolved covering policy while candidates exist
func validateVerdict(v *oracle.Verdict, candidates []model.Candidate) []string {
	var errs []string

	if !model.ValidOracleStatus(model.Status(v.Status)) {
		errs = append(errs, fmt.Sprintf("invalid status: %q", v.Status))
	}

	if !model.ValidConfidence(model.Confidence(v.Confidence)) {
		v.Confidence = string(model.ConfidenceMedium)
	}

	if v.CoveringPolicyNumber != "" {
		if v.CoveringPolicyNumber.IsNumeric() {
			idx, _ := strconv.Atoi(string(v.CoveringPolicyNumber))
			idx-- // oracle indexes the candidate list from 1
			if idx >= 0 && idx < len(candidates) {
				v.CoveringPolicyNumber = oracle.FlexString(candidates[idx].PolicyNumber)
			} else {
				v.CoveringPolicyNumber = ""
			}
		} else if m := policyNameRe.FindStringSubmatch(string(v.CoveringPolicyNumber)); m != nil {
			v.CoveringPolicyNumber = oracle.FlexString(m[1])
		}
	}

	if model.Status(v.Status) == model.StatusGap {
		v.CoveringPolicyNumber = ""
	}

	if model.Status(v.Status) == model.StatusCovered && v.CoveringPolicyNumber == "" && len(candidates) > 0 {
		errs = append(errs, "COVERED but no covering_policy_number resolved")
	}

	return errs
}
