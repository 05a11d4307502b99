package scapeid

import "strings"

// Normalize canonicalizes scape names and reference aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized) {
		if canonical, ok := canonicalScapeName(candidate); ok {
			return canonical
		}
	}
	return normalized
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}

	trimmed := strings.TrimPrefix(normalized, "scape-")
	if trimmed == normalized {
		trimmed = strings.TrimPrefix(trimmed, "scape")
	}
	trimmed = strings.Trim(trimmed, "-")
	if trimmed != "" && trimmed != normalized {
		candidates = append(candidates, trimmed)
	}

	for _, c := range []string{trimmed, normalized} {
		if env := strings.TrimSuffix(c, "-env"); env != c && env != "" {
			candidates = append(candidates, env)
		}
	}
	return candidates
}

func canonicalScapeName(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "twocarrier", "twocarriers", "twocarrierenv":
		return "two-carrier", true
	default:
		return "", false
	}
}
