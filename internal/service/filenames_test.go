package service

import "testing"

func TestEnsureJSONSuffix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare name", "mysave", "mysave.json"},
		{"already suffixed", "mysave.json", "mysave.json"},
		{"dot in name", "v1.2", "v1.2.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureJSONSuffix(tt.in); got != tt.want {
				t.Errorf("EnsureJSONSuffix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("vacation.json"); got != "vacation" {
		t.Errorf("DisplayName = %q, want %q", got, "vacation")
	}
	if got := DisplayName("vacation"); got != "vacation" {
		t.Errorf("DisplayName without suffix = %q", got)
	}
}

func TestIsAutoSave(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"autosave.json", true},
		{"autosave_2.json", true},
		{"vacation.json", false},
		{"my_autosave.json", false},
	}

	for _, tt := range tests {
		if got := IsAutoSave(tt.in); got != tt.want {
			t.Errorf("IsAutoSave(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
