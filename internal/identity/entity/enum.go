package entity

import "strings"

type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
)

func (g Gender) String() string {
	return string(g)
}

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// GenderFromString parses a gender case-insensitively; unknown values map
// to GenderUnknown.
func GenderFromString(s string) Gender {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return GenderUnknown
	}
	return g
}
