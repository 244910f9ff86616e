package sqlagent

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	firstWordRegex    = regexp.MustCompile(`^[\s(]*([A-Za-z]+)`)
	writeKeywordRegex = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|MERGE|GRANT|REVOKE|ATTACH|DETACH|INTO|COPY|CALL|EXEC|EXECUTE|LOCK|VACUUM|REINDEX)\b`)
)

var readOnlyStatements = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
}

// CheckReadOnly accepts a single read statement and returns it unchanged
// apart from trailing semicolons, whitespace and comments. Anything else
// wraps ErrNotReadOnly. Keywords and separators are only looked for outside
// string literals, quoted identifiers and comments. The driver still runs the
// statement in a read-only transaction.
func CheckReadOnly(query string) (string, error) {
	code, err := maskQuoted(query)
	if err != nil {
		return "", err
	}

	end := len(strings.TrimRight(code, "; \t\r\n"))
	stmt := strings.TrimSpace(query[:end])
	code = code[:end]
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	}

	if strings.Contains(code, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}

	m := firstWordRegex.FindStringSubmatch(code)
	if m == nil || !readOnlyStatements[strings.ToUpper(m[1])] {
		return "", fmt.Errorf("%w: only SELECT, WITH, SHOW, DESCRIBE and EXPLAIN are allowed", ErrNotReadOnly)
	}

	if kw := writeKeywordRegex.FindString(code); kw != "" {
		return "", fmt.Errorf("%w: %s is not allowed", ErrNotReadOnly, strings.ToUpper(kw))
	}
	return stmt, nil
}

// maskQuoted returns query with the contents of literals, quoted identifiers
// and comments blanked out. Byte offsets are preserved. Backslashes inside
// quotes are refused because MySQL and PostgreSQL disagree on them.
func maskQuoted(query string) (string, error) {
	out := []byte(query)
	blank := func(from, to int) {
		for i := from; i < to; i++ {
			if out[i] != '\n' {
				out[i] = ' '
			}
		}
	}

	for i := 0; i < len(query); {
		switch c := query[i]; {
		case c == '\'' || c == '"' || c == '`':
			j := i + 1
			for ; j < len(query); j++ {
				if query[j] == '\\' && c != '`' {
					return "", fmt.Errorf("%w: backslash in quoted text", ErrNotReadOnly)
				}
				if query[j] == c {
					// A doubled quote is an escaped quote.
					if j+1 < len(query) && query[j+1] == c {
						j++
						continue
					}
					break
				}
			}
			if j >= len(query) {
				return "", fmt.Errorf("%w: unterminated quoted text", ErrNotReadOnly)
			}
			blank(i+1, j)
			i = j + 1
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			j := strings.IndexByte(query[i:], '\n')
			if j < 0 {
				j = len(query) - i
			}
			blank(i, i+j)
			i += j
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			j := strings.Index(query[i+2:], "*/")
			if j < 0 {
				return "", fmt.Errorf("%w: unterminated comment", ErrNotReadOnly)
			}
			blank(i, i+2+j+2)
			i += 2 + j + 2
		default:
			i++
		}
	}
	return string(out), nil
}
