package openai

import "regexp"

// FunctionNamePattern is the character class accepted for tool function names.
const FunctionNamePattern = "[a-zA-Z0-9_-]+"

var (
	invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	validName        = regexp.MustCompile(`^` + FunctionNamePattern + `$`)
)

// SanitizeFunctionName replaces every character outside [a-zA-Z0-9_-] with an underscore.
// Multi-byte characters are replaced by a single underscore.
func SanitizeFunctionName(name string) string {
	return invalidNameChars.ReplaceAllString(name, "_")
}

// IsValidFunctionName reports whether name is non-empty and made only of [a-zA-Z0-9_-].
func IsValidFunctionName(name string) bool {
	return validName.MatchString(name)
}
