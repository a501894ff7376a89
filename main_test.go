package main

import (
	"testing"
)

func TestParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantProfile string
		wantArgs    []string
	}{
		{
			name:        "no flags",
			args:        []string{"ask", "你好"},
			wantProfile: "",
			wantArgs:    []string{"ask", "你好"},
		},
		{
			name:        "profile before command",
			args:        []string{"--profile", "staging", "config"},
			wantProfile: "staging",
			wantArgs:    []string{"config"},
		},
		{
			name:        "profile after command",
			args:        []string{"saves", "--profile", "prod"},
			wantProfile: "prod",
			wantArgs:    []string{"saves"},
		},
		{
			name:        "profile with extra args",
			args:        []string{"--profile", "dev", "set", "server", "http://localhost:8000"},
			wantProfile: "dev",
			wantArgs:    []string{"set", "server", "http://localhost:8000"},
		},
		{
			name:        "trailing profile without value",
			args:        []string{"config", "--profile"},
			wantProfile: "",
			wantArgs:    []string{"config"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activeProfile = ""
			got := parseGlobalFlags(tt.args)
			if activeProfile != tt.wantProfile {
				t.Errorf("activeProfile = %q, want %q", activeProfile, tt.wantProfile)
			}
			if len(got) != len(tt.wantArgs) {
				t.Errorf("remaining args = %v, want %v", got, tt.wantArgs)
				return
			}
			for i := range got {
				if got[i] != tt.wantArgs[i] {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestProfileFlag(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		want    string
	}{
		{"empty profile", "", ""},
		{"named profile", "staging", " --profile staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activeProfile = tt.profile
			if got := profileFlag(); got != tt.want {
				t.Errorf("profileFlag() = %q, want %q", got, tt.want)
			}
			activeProfile = ""
		})
	}
}
