package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no pipes",
			in:   "## Heading\nplain text",
			want: "## Heading\nplain text",
		},
		{
			name: "flattened rows",
			in:   "## Intro\n| A | B | |---|---| | 1 | 2 |",
			want: "## Intro\n| A | B |\n|---|---|\n| 1 | 2 |",
		},
		{
			name: "lone row with empty cell untouched",
			in:   "| a | | b |",
			want: "| a | | b |",
		},
		{
			name: "rows without separator untouched",
			in:   "## Intro\n| A | B | | 1 | 2 |",
			want: "## Intro\n| A | B | | 1 | 2 |",
		},
		{
			name: "flattened with separator",
			in:   "| Tense | Example | |---|---| | Past | I went | | Future | I will go |",
			want: "| Tense | Example |\n|---|---|\n| Past | I went |\n| Future | I will go |",
		},
		{
			name: "aligned separator",
			in:   "| A | B | |:---|---:| | 1 | 2 |",
			want: "| A | B |\n|:---|---:|\n| 1 | 2 |",
		},
		{
			name: "well formed table untouched",
			in:   "| A | B |\n|---|---|\n| 1 | |",
			want: "| A | B |\n|---|---|\n| 1 | |",
		},
		{
			name: "indentation preserved",
			in:   "  | A | |---| | 1 |",
			want: "  | A |\n  |---|\n  | 1 |",
		},
		{
			name: "pipe in prose untouched",
			in:   "use a | b in text",
			want: "use a | b in text",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NormalizeTables(tc.in))
		})
	}
}

func TestNormalizeTablesIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"| A | B | | 1 | 2 |",
		"| a | | b |",
		"| Tense | Example | |---|---| | Past | I went |",
		"text\n| a | | b |\nmore | text",
		"| only |",
		"||",
		"| x | |---| | y |\n\n| p | | q |",
	}
	for _, in := range inputs {
		once := NormalizeTables(in)
		assert.Equal(t, once, NormalizeTables(once), "input %q", in)
	}
}
