package catalogxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no pattern", "Brick 2 x 4", "Brick 2 x 4"},
		{"empty", "", ""},
		{"single reference", "A&#40;B", "A(B"},
		{"several references", "&#34;Technic&#34; &#40;Old&#41;", `"Technic" (Old)`},
		{"one digit left alone", "x&#1;y", "x&#1;y"},
		{"three digits left alone", "x&#123;y", "x&#123;y"},
		{"non-digits left alone", "x&#ab;y", "x&#ab;y"},
		{"residue does not block later match", "&#1; then &#39;", "&#1; then '"},
		{"missing semicolon", "A&#40B", "A&#40B"},
		{"nested reference decodes on the next round", "&#38;#65;", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairEntities(tt.input))
		})
	}
}

func TestRepairEntities_Idempotent(t *testing.T) {
	inputs := []string{
		"A&#40;B",
		"Plate 1 x 2 &#40;with Clip&#41;",
		"no references here",
		"&#1; &#123; &#ab;",
		"",
	}

	for _, in := range inputs {
		once := RepairEntities(in)
		assert.Equal(t, once, RepairEntities(once), "input %q", in)
	}
}
