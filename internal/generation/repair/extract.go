package repair

import (
	"encoding/json"
	"regexp"
	"strings"
)

// stringValue matches the body of a JSON string up to its closing quote or
// the end of input, so truncated values are still captured.
const stringValue = `\s*:\s*"((?:[^"\\]|\\.)*)(?:"|\\?$)`

var (
	contentField = fieldPattern("content")
	headingStart = regexp.MustCompile(`(?m)(^|\\n|")[ \t]*#{1,6}[ \t]+\S`)
	fenced       = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n?(.*?)\\s*```$")

	unescaper = strings.NewReplacer(
		`\n`, "\n",
		`\"`, `"`,
		`\\`, `\`,
		`\t`, "\t",
	)

	fieldCache = map[string]*regexp.Regexp{}
)

func init() {
	for _, name := range []string{"title", "summary", "full_content", "description"} {
		fieldCache[name] = fieldPattern(name)
	}
}

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)"` + regexp.QuoteMeta(name) + `"` + stringValue)
}

// extractString returns the unescaped value of the first "name": "..." pair.
func extractString(raw, name string) (string, bool) {
	re, ok := fieldCache[name]
	if !ok {
		re = fieldPattern(name)
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return unescape(m[1]), true
}

func unescape(s string) string {
	return unescaper.Replace(s)
}

// extractArray locates "name": [ ... ], cuts the bracketed span and parses
// it on its own into v. It reports false when the key is absent, the span
// never closes, or the span is not valid JSON.
func extractArray(raw, name string, v any) bool {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*\[`)
	loc := re.FindStringIndex(raw)
	if loc == nil {
		return false
	}
	start := loc[1] - 1
	end := matchBracket(raw, start)
	if end < 0 {
		return false
	}
	return json.Unmarshal([]byte(raw[start:end+1]), v) == nil
}

// matchBracket returns the index of the "]" closing the "[" at open,
// skipping brackets inside JSON strings, or -1 if it never closes.
func matchBracket(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fenced.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return trimmed
}

// sliceFromHeading returns the text from the first markdown heading on,
// unescaped when it still carries literal \n sequences, with trailing JSON
// punctuation removed.
func sliceFromHeading(raw string) (string, bool) {
	loc := headingStart.FindStringSubmatchIndex(raw)
	if loc == nil {
		return "", false
	}
	start := loc[3]
	escaped := raw[loc[2]:loc[3]] == `\n`

	body := raw[start:]
	if escaped || strings.Contains(body, `\n`) {
		body = unescape(body)
	}
	body = strings.TrimRight(body, " \t\r\n\"}],")
	body = strings.TrimSpace(body)
	if body == "" {
		return "", false
	}
	return body, true
}

// headingText returns the text of the first heading line in body.
func headingText(body string) string {
	line, _, _ := strings.Cut(body, "\n")
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
}
