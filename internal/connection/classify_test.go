package connection

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		title    string
		wantType ConnType
		wantOK   bool
	}{
		{"Call Grandma", TypeCall, true},
		{"Visit Grandma", TypeVisit, true},
		{"Share a photo", "", false},
		{"VIDEO CALL a cousin", TypeCall, true},
		{"Plan a visit", TypeVisit, true},
		{"Visit or call someone", TypeVisit, true}, // visit wins
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Classify(tt.title)
		if got != tt.wantType || ok != tt.wantOK {
			t.Errorf("Classify(%q) = (%q, %v), want (%q, %v)", tt.title, got, ok, tt.wantType, tt.wantOK)
		}
		if IsConnection(tt.title) != tt.wantOK {
			t.Errorf("IsConnection(%q) = %v, want %v", tt.title, !tt.wantOK, tt.wantOK)
		}
	}
}

func TestActionWord(t *testing.T) {
	if got := ActionWord("Visit an aunt"); got != "visited" {
		t.Errorf("ActionWord(visit) = %q", got)
	}
	if got := ActionWord("Call your brother"); got != "called" {
		t.Errorf("ActionWord(call) = %q", got)
	}
	if got := ActionWord("Share a memory"); got != "connected with" {
		t.Errorf("ActionWord(other) = %q", got)
	}
}

func TestIcon(t *testing.T) {
	if Icon("Visit Grandma") == Icon("Call Grandma") {
		t.Error("visit and call should have distinct icons")
	}
}
