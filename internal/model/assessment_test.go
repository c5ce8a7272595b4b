package model

import "testing"

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name       string
		assessment Assessment
		want       Status
	}{
		{"raw status", Assessment{Status: StatusPartial}, StatusPartial},
		{"escalated", Assessment{Status: StatusGap, Escalated: true}, StatusNeedsLegalReview},
		{"human override wins", Assessment{Status: StatusGap, Escalated: true, HumanStatus: StatusCovered}, StatusCovered},
		{"human override without escalation", Assessment{Status: StatusCovered, HumanStatus: StatusGap}, StatusGap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.assessment.EffectiveStatus(); got != tt.want {
				t.Errorf("EffectiveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidOracleStatus(t *testing.T) {
	for _, s := range OracleStatuses {
		if !ValidOracleStatus(s) {
			t.Errorf("Expected %s valid", s)
		}
	}
	if ValidOracleStatus(StatusNeedsLegalReview) {
		t.Error("NEEDS_LEGAL_REVIEW is not an oracle status")
	}
	if ValidOracleStatus("covered") {
		t.Error("Status matching is case-sensitive")
	}
}

func TestValidConfidence(t *testing.T) {
	for _, c := range []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow} {
		if !ValidConfidence(c) {
			t.Errorf("Expected %s valid", c)
		}
	}
	if ValidConfidence("certain") {
		t.Error("Expected unknown confidence rejected")
	}
}
