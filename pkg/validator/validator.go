package validator

import "regexp"

var (
	envIdRegex      *regexp.Regexp
	namePrefixRegex *regexp.Regexp
)

// ValidateEnvId accepts ids of the form [namespace/]Name[-vN].
func ValidateEnvId(id string) bool {
	return envIdRegex.MatchString(id)
}

// ValidateNamePrefix accepts prefixes that are safe as a file name stem.
func ValidateNamePrefix(prefix string) bool {
	return namePrefixRegex.MatchString(prefix)
}

func init() {
	envIdRegex = regexp.MustCompile(`^(?:[\w:.-]+/)?[[:alpha:]][\w:.-]*?(?:-v\d+)?$`)
	namePrefixRegex = regexp.MustCompile(`^[\w][\w.-]*$`)
}
