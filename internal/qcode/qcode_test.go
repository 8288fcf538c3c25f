package qcode

import "testing"

func TestLookupWithAndWithoutQ(t *testing.T) {
	c := Default()

	withQ := c.Lookup("QMRLC")
	without := c.Lookup("MRLC")
	if withQ == nil || without == nil {
		t.Fatal("Lookup returned nil for a known code")
	}
	if withQ.SubjectCode != "MR" || without.SubjectCode != "MR" {
		t.Errorf("SubjectCode = %q / %q, want MR", withQ.SubjectCode, without.SubjectCode)
	}
	if withQ.ConditionCode != "LC" || without.ConditionCode != "LC" {
		t.Errorf("ConditionCode = %q / %q, want LC", withQ.ConditionCode, without.ConditionCode)
	}
	if withQ.SubjectMeaning != "Runway" {
		t.Errorf("SubjectMeaning = %q, want Runway", withQ.SubjectMeaning)
	}
	if withQ.ConditionMeaning != "Closed" {
		t.Errorf("ConditionMeaning = %q, want Closed", withQ.ConditionMeaning)
	}
	if withQ.DisplayText != without.DisplayText {
		t.Errorf("DisplayText differs with/without Q: %q vs %q", withQ.DisplayText, without.DisplayText)
	}
	if withQ.ShortText != "runway closed" {
		t.Errorf("ShortText = %q, want %q", withQ.ShortText, "runway closed")
	}
}

func TestLookupUnknownSubject(t *testing.T) {
	info := Default().Lookup("QZQLC")
	if info == nil {
		t.Fatal("Lookup returned nil for unknown subject")
	}
	if info.SubjectMeaning != "Unknown" {
		t.Errorf("SubjectMeaning = %q, want Unknown", info.SubjectMeaning)
	}
	if info.SubjectPhrase != "zq" {
		t.Errorf("SubjectPhrase = %q, want zq", info.SubjectPhrase)
	}
	if info.DisplayText == "" {
		t.Error("DisplayText empty for unknown subject")
	}
}

func TestLookupTooShort(t *testing.T) {
	if info := Default().Lookup("Q"); info != nil {
		t.Errorf("Lookup(Q) = %+v, want nil", info)
	}
	if info := Default().Lookup(""); info != nil {
		t.Errorf("Lookup(empty) = %+v, want nil", info)
	}
}

func TestIsChecklist(t *testing.T) {
	if !IsChecklist("QKKKK") {
		t.Error("IsChecklist(QKKKK) = false")
	}
	if !IsChecklist("KKKK") {
		t.Error("IsChecklist(KKKK) = false")
	}
	if IsChecklist("QMRLC") {
		t.Error("IsChecklist(QMRLC) = true")
	}
}

func TestIsPlainLanguage(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"QFAXX", true},
		{"FAXX", true},
		{"QXXXX", true},
		{"QMRLC", false},
		{"QXX", false}, // Too short once the Q is stripped.
		{"XX", false},
	}
	for _, tt := range tests {
		if got := IsPlainLanguage(tt.code); got != tt.want {
			t.Errorf("IsPlainLanguage(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestLookupSubjectOnly(t *testing.T) {
	info := Default().Lookup("QMR")
	if info == nil {
		t.Fatal("Lookup returned nil")
	}
	if info.ConditionCode != "" || info.ConditionMeaning != "" {
		t.Errorf("subject-only lookup produced condition %q/%q", info.ConditionCode, info.ConditionMeaning)
	}
	if info.DisplayText != "Runway" {
		t.Errorf("DisplayText = %q, want Runway", info.DisplayText)
	}
}
