package service

import "strings"

// EnsureJSONSuffix appends .json when the user typed a bare save or prompt
// name. The backend stores both kinds as JSON files and matches on the full
// filename.
func EnsureJSONSuffix(name string) string {
	if strings.HasSuffix(name, ".json") {
		return name
	}
	return name + ".json"
}

// DisplayName trims the .json suffix for listing saves and prompts.
func DisplayName(filename string) string {
	return strings.TrimSuffix(filename, ".json")
}

// IsAutoSave reports whether a save filename belongs to the backend's
// rotating autosave slots (autosave.json, autosave_1.json ... autosave_5.json).
func IsAutoSave(filename string) bool {
	return filename == "autosave.json" || strings.HasPrefix(filename, "autosave_")
}
