package fault

import (
	"encoding/json"
	"testing"
)

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityCritical < SeverityHigh && SeverityHigh < SeverityMedium && SeverityMedium < SeverityLow) {
		t.Error("severity ordinals must order CRITICAL < HIGH < MEDIUM < LOW")
	}
}

func TestSeverityString(t *testing.T) {
	cases := map[Severity]string{
		SeverityCritical: "CRITICAL",
		SeverityHigh:     "HIGH",
		SeverityMedium:   "MEDIUM",
		SeverityLow:      "LOW",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("String(%d) = %q, want %q", int(sev), got, want)
		}
		if got := ParseSeverity(want); got != sev {
			t.Errorf("ParseSeverity(%q) = %v, want %v", want, got, sev)
		}
	}
}

func TestParseSeverity_Unknown(t *testing.T) {
	if got := ParseSeverity("BOGUS"); got != SeverityLow {
		t.Errorf("ParseSeverity(BOGUS) = %v, want LOW", got)
	}
}

func TestSeverityJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(SeverityCritical)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"CRITICAL"` {
		t.Errorf("Marshal = %s, want \"CRITICAL\"", b)
	}
	var s Severity
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s != SeverityCritical {
		t.Errorf("round trip = %v, want CRITICAL", s)
	}
}

func TestTypeDefaults(t *testing.T) {
	cases := []struct {
		typ  Type
		want Severity
	}{
		{TypeCrashLoopBackOff, SeverityCritical},
		{TypeImagePullBackOff, SeverityCritical},
		{TypeOOMKilled, SeverityCritical},
		{TypeNodeNotReady, SeverityCritical},
		{TypePending, SeverityHigh},
		{TypeNodePressure, SeverityHigh},
		{TypeReadinessProbeFailed, SeverityMedium},
		{TypeCronJobFailed, SeverityMedium},
		{TypeUnknown, SeverityLow},
	}
	for _, c := range cases {
		if got := c.typ.DefaultSeverity(); got != c.want {
			t.Errorf("DefaultSeverity(%s) = %v, want %v", c.typ, got, c.want)
		}
	}
}

func TestTypeDescription_NonEmpty(t *testing.T) {
	for _, typ := range Types() {
		if typ.Description() == "" {
			t.Errorf("Type %s has empty description", typ)
		}
	}
	if len(Types()) != 23 {
		t.Errorf("Types() returned %d members, want 23", len(Types()))
	}
}
