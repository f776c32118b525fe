package model

import (
	"regexp"
	"strings"
)

// MaxDescriptionLength is the upper bound, in characters, on description
// text after trimming.
const MaxDescriptionLength = 1000

var multiNewline = regexp.MustCompile(`\n{3,}`)

// NormalizeDescription trims the text and collapses runs of three or more
// consecutive newlines down to exactly two, so a description never contains
// more than one empty line in a row. Single blank lines are preserved.
func NormalizeDescription(text string) string {
	return multiNewline.ReplaceAllString(strings.TrimSpace(text), "\n\n")
}
