package catalogxml

import (
	"regexp"
	"strconv"
)

var numericRef = regexp.MustCompile(`&#[0-9]{2};`)

// RepairEntities decodes every "&#NN;" reference (exactly two decimal digits)
// into its character, repeating until none is left. References of any other
// shape are left untouched.
func RepairEntities(s string) string {
	for numericRef.MatchString(s) {
		s = numericRef.ReplaceAllStringFunc(s, decodeRef)
	}
	return s
}

func decodeRef(ref string) string {
	code, err := strconv.Atoi(ref[2:4])
	if err != nil {
		return ref
	}
	return string(rune(code))
}
