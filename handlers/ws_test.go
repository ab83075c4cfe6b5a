package handlers

import "testing"

func TestTeamIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/ws/teams/t1", "t1"},
		{"/api/v1/ws/teams/t2/", "t2"},
		{"/ws/teams/5f1c", "5f1c"},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := teamIDFromPath(tt.path); got != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.path, tt.want, got)
		}
	}
}
