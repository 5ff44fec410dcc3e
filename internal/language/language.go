// Package language defines the closed set of study languages. Every stored
// message and history entry belongs to exactly one Tag.
package language

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknown = errors.New("unknown language")

type Tag string

const (
	Japanese   Tag = "Japanese"
	English    Tag = "English"
	Korean     Tag = "Korean"
	Spanish    Tag = "Spanish"
	German     Tag = "German"
	French     Tag = "French"
	Chinese    Tag = "Chinese"
	Russian    Tag = "Russian"
	Portuguese Tag = "Portuguese"
	Arabic     Tag = "Arabic"
	Indonesian Tag = "Indonesian"
	Hindi      Tag = "Hindi"
	Thai       Tag = "Thai"
	Vietnamese Tag = "Vietnamese"
	Taiwanese  Tag = "Taiwanese"
	Dutch      Tag = "Dutch"
	Italian    Tag = "Italian"
)

// Default is the tag used before the saved setting has been loaded.
const Default = English

// display order used by selectors
var all = []Tag{
	English, Korean, Spanish, German, French, Chinese, Russian, Portuguese,
	Arabic, Indonesian, Hindi, Thai, Vietnamese, Taiwanese, Dutch, Italian, Japanese,
}

func All() []Tag {
	out := make([]Tag, len(all))
	copy(out, all)
	return out
}

// Parse matches s against the known tags, ignoring case and surrounding space.
func Parse(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	for _, t := range all {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, s)
}

// Valid reports whether t is exactly one of the known tags.
func (t Tag) Valid() bool {
	p, err := Parse(string(t))
	return err == nil && p == t
}

func (t Tag) String() string { return string(t) }
