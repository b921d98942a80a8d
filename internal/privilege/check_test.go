package privilege

import "testing"

func TestRequiresElevation(t *testing.T) {
	tests := []struct {
		command string
		want    bool
	}{
		{"install", true},
		{"dns set", true},
		{"dns rollback", true},
		{"dns check", false},
		{"catalog", false},
		{"doctor", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := RequiresElevation(tt.command); got != tt.want {
			t.Errorf("RequiresElevation(%q) = %v, want %v", tt.command, got, tt.want)
		}
	}
}
