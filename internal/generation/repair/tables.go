package repair

import (
	"regexp"
	"strings"
)

var (
	// "|" directly followed by a header separator cell: row | |---|
	beforeSeparator = regexp.MustCompile(`(\|)[ \t]*(\|[ \t]*:?-{3,})`)
	// separator cell directly followed by the next row: ---| |
	afterSeparator = regexp.MustCompile(`(-{3,}:?[ \t]*\|)[ \t]*(\|)`)
	// two row edges touching: | |
	betweenRows = regexp.MustCompile(`\|[ \t]+\|`)
	// header separator cell: |---| or |:---:|
	separatorCell = regexp.MustCompile(`\|[ \t]*:?-{3,}:?[ \t]*\|`)
)

// NormalizeTables rewrites markdown tables that arrived flattened onto a
// single line so each row sits on its own line. Only lines that look like a
// lone table row (start and end with "|", have no table row neighbours and
// carry a header separator) are touched. Properly formatted tables and a
// lone row with an empty cell are left as they are, and the transform is
// idempotent.
func NormalizeTables(text string) string {
	if !strings.Contains(text, "|") {
		return text
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if !isFlatTable(line) || isTableLine(lineAt(lines, i-1)) || isTableLine(lineAt(lines, i+1)) {
			out = append(out, line)
			continue
		}
		out = append(out, splitFlatRow(line))
	}
	return strings.Join(out, "\n")
}

func splitFlatRow(line string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	row := strings.TrimSpace(line)

	row = beforeSeparator.ReplaceAllString(row, "$1\n$2")
	row = afterSeparator.ReplaceAllString(row, "$1\n$2")
	row = betweenRows.ReplaceAllString(row, "|\n|")

	if indent == "" {
		return row
	}
	return indent + strings.ReplaceAll(row, "\n", "\n"+indent)
}

func isFlatTable(line string) bool {
	return isTableLine(line) && separatorCell.MatchString(line)
}

func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) >= 2 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

func lineAt(lines []string, i int) string {
	if i < 0 || i >= len(lines) {
		return ""
	}
	return lines[i]
}
