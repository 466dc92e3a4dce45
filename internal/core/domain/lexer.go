package domain

import "strings"

// tokenKind classifies the lexical tokens the shape validator cares about.
// Anything it doesn't need to distinguish (operators, numbers, parameters)
// is lumped into tokenOther.
type tokenKind uint8

const (
	tokenWord        tokenKind = iota // unquoted identifier or keyword
	tokenQuotedIdent                  // "name", [name] or `name`
	tokenString                       // '...' literal
	tokenComma
	tokenLParen
	tokenRParen
	tokenOther
)

// token is a lexical unit with its half-open byte range in the input.
type token struct {
	kind  tokenKind
	text  string // raw text including any quotes
	start int
	end   int
}

// keywordIs reports whether the token is an unquoted word matching kw
// case-insensitively. Quoted identifiers are never keywords.
func (t token) keywordIs(kw string) bool {
	return t.kind == tokenWord && strings.EqualFold(t.text, kw)
}

// identifier returns the identifier value of a word or quoted-identifier
// token with quoting removed, or "" for any other kind. Doubled closing
// quotes inside quoted forms are collapsed.
func (t token) identifier() string {
	switch t.kind {
	case tokenWord:
		return t.text
	case tokenQuotedIdent:
		if len(t.text) < 2 {
			return ""
		}
		inner := t.text[1 : len(t.text)-1]
		switch t.text[0] {
		case '"':
			return strings.ReplaceAll(inner, `""`, `"`)
		case '[':
			return strings.ReplaceAll(inner, "]]", "]")
		case '`':
			return strings.ReplaceAll(inner, "``", "`")
		}
	}
	return ""
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '#' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c >= 0x80
}

// scanTokens lexes a SQL statement just enough for clause-shape analysis:
// comments and string literals disappear, quoted identifiers stay intact,
// and everything keeps its source offsets. The scan never fails — malformed
// input (unterminated literals or comments) consumes to end of input.
func scanTokens(input string) []token {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			i++

		case c == '-' && i+1 < len(input) && input[i+1] == '-':
			nl := strings.IndexByte(input[i:], '\n')
			if nl < 0 {
				i = len(input)
			} else {
				i += nl + 1
			}

		case c == '/' && i+1 < len(input) && input[i+1] == '*':
			end := strings.Index(input[i+2:], "*/")
			if end < 0 {
				i = len(input)
			} else {
				i += 2 + end + 2
			}

		case c == '\'':
			toks = append(toks, scanQuoted(input, i, '\'', tokenString))
			i = toks[len(toks)-1].end

		case c == '"':
			toks = append(toks, scanQuoted(input, i, '"', tokenQuotedIdent))
			i = toks[len(toks)-1].end

		case c == '`':
			toks = append(toks, scanQuoted(input, i, '`', tokenQuotedIdent))
			i = toks[len(toks)-1].end

		case c == '[':
			toks = append(toks, scanQuoted(input, i, ']', tokenQuotedIdent))
			i = toks[len(toks)-1].end

		case c == ',':
			toks = append(toks, token{tokenComma, ",", i, i + 1})
			i++

		case c == '(':
			toks = append(toks, token{tokenLParen, "(", i, i + 1})
			i++

		case c == ')':
			toks = append(toks, token{tokenRParen, ")", i, i + 1})
			i++

		case isWordByte(c) && (c < '0' || c > '9'):
			j := i + 1
			for j < len(input) && isWordByte(input[j]) {
				j++
			}
			toks = append(toks, token{tokenWord, input[i:j], i, j})
			i = j

		default:
			toks = append(toks, token{tokenOther, input[i : i+1], i, i + 1})
			i++
		}
	}
	return toks
}

// scanQuoted consumes a quoted region starting at start. closer is the byte
// that ends the region; a doubled closer is an escape and stays inside.
// For bracket quoting the opener '[' differs from the closer ']'.
func scanQuoted(input string, start int, closer byte, kind tokenKind) token {
	i := start + 1
	for i < len(input) {
		if input[i] != closer {
			i++
			continue
		}
		if i+1 < len(input) && input[i+1] == closer {
			i += 2
			continue
		}
		i++
		return token{kind, input[start:i], start, i}
	}
	// Unterminated: the rest of the input belongs to this token.
	return token{kind, input[start:], start, len(input)}
}
