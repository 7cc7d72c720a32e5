package host

import (
	"path/filepath"
)

// FindCandidates returns possible host directories in priority order: the
// directory holding the running executable, then the platform's default
// install location. Callers validate the candidates.
func FindCandidates(goos string, getenv func(string) string, exeDir string) []string {
	var candidates []string
	if exeDir != "" {
		candidates = append(candidates, exeDir)
	}

	switch goos {
	case "windows":
		if local := getenv("LOCALAPPDATA"); local != "" {
			candidates = append(candidates, filepath.Join(local, "Discord"))
		}
	}

	return candidates
}

// Detect returns the first valid candidate, or "" when none validates.
func Detect(candidates []string) string {
	for _, dir := range candidates {
		if ok, err := Validate(dir); err == nil && ok {
			return dir
		}
	}
	return ""
}
