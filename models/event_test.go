package models

import "testing"

func TestValidTimeOfDay(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false}, // must be fixed-width
		{"12:60", false},
		{"12-30", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidTimeOfDay(tt.value); got != tt.want {
			t.Fatalf("ValidTimeOfDay(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestMultiGame(t *testing.T) {
	if !MultiGame(CategoryTournament) || !MultiGame(CategoryChampionship) {
		t.Fatal("tournaments and championships are multi-game")
	}
	for _, c := range []string{CategoryTraining, CategoryFriendlyMatch, CategoryMeeting, CategoryMaintenance, CategoryOther} {
		if MultiGame(c) {
			t.Fatalf("%s must not be multi-game", c)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range []string{CategoryTraining, CategoryTournament, CategoryChampionship, CategoryFriendlyMatch, CategoryMeeting, CategoryMaintenance, CategoryOther} {
		if !ValidCategory(c) {
			t.Fatalf("%s must be a valid category", c)
		}
	}
	if ValidCategory("PARTY") {
		t.Fatal("unknown category must be rejected")
	}
}

func TestValidRSVPStatus(t *testing.T) {
	for _, s := range []string{RSVPPending, RSVPConfirmed, RSVPDeclined} {
		if !ValidRSVPStatus(s) {
			t.Fatalf("%s must be a valid status", s)
		}
	}
	if ValidRSVPStatus("MAYBE") {
		t.Fatal("unknown status must be rejected")
	}
}
