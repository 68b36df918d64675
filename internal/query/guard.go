package query

import (
	"fmt"
	"strings"
)

const DefaultMaxRows = 100

// DeniedKeywords are matched as substrings of the upper-cased statement, in
// this order. Identifiers such as "created_at" are rejected too.
var DeniedKeywords = []string{"DROP", "DELETE", "INSERT", "UPDATE", "ALTER", "CREATE", "TRUNCATE"}

// DeniedKeyword returns the first denied keyword found anywhere in sqlText.
func DeniedKeyword(sqlText string) (string, bool) {
	upper := strings.ToUpper(sqlText)
	for _, keyword := range DeniedKeywords {
		if strings.Contains(upper, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func DeniedMessage(keyword string) string {
	return fmt.Sprintf("Dangerous operation '%s' not allowed", keyword)
}

// EnforceLimit appends " LIMIT n;" when the statement mentions no LIMIT at
// all. The rewrite is textual.
func EnforceLimit(sqlText string, maxRows int) string {
	if strings.Contains(strings.ToUpper(sqlText), "LIMIT") {
		return sqlText
	}
	trimmed := strings.TrimRight(strings.TrimSpace(sqlText), ";")
	return fmt.Sprintf("%s LIMIT %d;", trimmed, NormalizeMaxRows(maxRows))
}

func NormalizeMaxRows(maxRows int) int {
	if maxRows <= 0 {
		return DefaultMaxRows
	}
	return maxRows
}

// MultipleStatementsMessage matches the wording SQLite clients use when more
// than one statement is submitted at once.
const MultipleStatementsMessage = "You can only execute one statement at a time."

// HasMultipleStatements reports whether anything other than whitespace or
// comments follows a top-level ';'. Semicolons inside quotes, bracketed
// identifiers and comments are ignored.
func HasMultipleStatements(sqlText string) bool {
	terminated := false
	for i := 0; i < len(sqlText); i++ {
		c := sqlText[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closing := c
			if c == '[' {
				closing = ']'
			}
			if terminated {
				return true
			}
			end := strings.IndexByte(sqlText[i+1:], closing)
			if end < 0 {
				return false
			}
			i += end + 1
		case c == '-' && i+1 < len(sqlText) && sqlText[i+1] == '-':
			end := strings.IndexByte(sqlText[i:], '\n')
			if end < 0 {
				return false
			}
			i += end
		case c == '/' && i+1 < len(sqlText) && sqlText[i+1] == '*':
			end := strings.Index(sqlText[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3
		case c == ';':
			terminated = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			if terminated {
				return true
			}
		}
	}
	return false
}
