package services

import (
	"regexp"
	"strings"
)

// namePattern matches the character set EVE allows in character names:
// letters, digits, dots, apostrophes and hyphens, words separated by single
// spaces.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9.'\-]+( [A-Za-z0-9.'\-]+)*$`)

const (
	minNameLength      = 3
	maxNameLength      = 37
	maxFirstNameLength = 24
	maxLastNameLength  = 12
)

// ValidateName trims and validates a raw character name. Returns the trimmed
// name and whether it is acceptable. Length rules: a single-word name is
// capped at 24 characters; for multi-word names everything before the last
// word is capped at 24 and the last word at 12.
func ValidateName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)

	if len(name) < minNameLength || len(name) > maxNameLength {
		return name, false
	}
	if !namePattern.MatchString(name) {
		return name, false
	}

	// The pattern already excludes leading/trailing spaces; apostrophes and
	// hyphens are additionally forbidden at either end.
	first, last := name[0], name[len(name)-1]
	if first == '\'' || first == '-' || last == '\'' || last == '-' {
		return name, false
	}

	words := strings.Split(name, " ")
	if len(words) == 1 {
		if len(words[0]) > maxFirstNameLength {
			return name, false
		}
		return name, true
	}

	lastWord := words[len(words)-1]
	given := strings.Join(words[:len(words)-1], " ")
	if len(given) > maxFirstNameLength || len(lastWord) > maxLastNameLength {
		return name, false
	}
	return name, true
}
