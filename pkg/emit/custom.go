package emit

import "strings"

// CustomCodeMarker separates generated content from the hand-written tail of
// a file. Everything after it survives regeneration.
const CustomCodeMarker = "// --(BEGIN CUSTOM CODE)--\n"

// ExtractCustomCode returns the custom tail of existing, or fallback when the
// file has no marker, more than one marker, or only whitespace after it.
func ExtractCustomCode(existing, fallback string) string {
	parts := strings.Split(existing, CustomCodeMarker)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return fallback
	}
	return parts[1]
}

// joinCustomCode appends tail after generated, which must end with the
// marker line.
func joinCustomCode(generated, tail string) string {
	if !strings.HasSuffix(generated, CustomCodeMarker) {
		trimmed := strings.TrimRight(generated, "\n")
		if !strings.HasSuffix(trimmed, strings.TrimSuffix(CustomCodeMarker, "\n")) {
			trimmed += "\n\n" + strings.TrimSuffix(CustomCodeMarker, "\n")
		}
		generated = trimmed + "\n"
	}
	return generated + tail
}
