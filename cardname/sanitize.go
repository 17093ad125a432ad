// Package cardname normalizes card names into stable search keys and
// parses free-text decklist lines.
package cardname

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// FaceSeparator is the canonical separator between the two halves of an
// explicitly spelled out double-faced card.
const FaceSeparator = "&"

// TokenPrefix marks an entry as a token rather than a card.
const TokenPrefix = "t:"

var bracketedText = regexp.MustCompile(`\(.*?\)|\[.*?\]`)

var faceSeparators = regexp.MustCompile(`\s*(?://|/|&)\s*`)

var apostrophes = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"ʼ", "'",
	"´", "'",
	"`", "'",
)

// Accented characters, lowercase only since folding runs after ToLower
var accents = strings.NewReplacer(
	"â", "a",
	"á", "a",
	"à", "a",
	"ä", "a",
	"ã", "a",
	"é", "e",
	"è", "e",
	"ê", "e",
	"ë", "e",
	"í", "i",
	"î", "i",
	"ï", "i",
	"ö", "o",
	"ó", "o",
	"ô", "o",
	"õ", "o",
	"ú", "u",
	"û", "u",
	"ü", "u",
	"ñ", "n",
	"ç", "c",

	// Ancient ligature
	"æ", "ae",
)

// Sanitize produces the lookup key for a card name. The result contains
// only lowercase letters separated by single spaces, with bracketed
// text, accents, punctuation, digits and the word "the" removed.
// Sanitize(Sanitize(x)) == Sanitize(x) for any input.
func Sanitize(name string) string {
	name = strings.ToLower(name)
	name = bracketedText.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "-", " ")
	name = apostrophes.Replace(name)
	name = accents.Replace(name)

	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == ' ' {
			return r
		}
		return -1
	}, name)

	fields := strings.Fields(name)
	out := fields[:0]
	for _, field := range fields {
		if field == "the" {
			continue
		}
		out = append(out, field)
	}
	return strings.Join(out, " ")
}

// Equals compares two names after both are Sanitize-d.
func Equals(name1, name2 string) bool {
	return Sanitize(name1) == Sanitize(name2)
}

// SplitFaces breaks a query on the face separator, normalizing the
// slash forms first. The second return is empty when the query names a
// single face.
func SplitFaces(query string) (string, string) {
	norm := faceSeparators.ReplaceAllString(query, " "+FaceSeparator+" ")
	halves := strings.SplitN(norm, FaceSeparator, 2)
	if len(halves) < 2 {
		return strings.TrimSpace(query), ""
	}
	return strings.TrimSpace(halves[0]), strings.TrimSpace(halves[1])
}

// IsToken reports whether the query carries the token prefix, and
// returns it with the prefix stripped.
func IsToken(query string) (string, bool) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) >= len(TokenPrefix) &&
		strings.EqualFold(trimmed[:len(TokenPrefix)], TokenPrefix) {
		return strings.TrimSpace(trimmed[len(TokenPrefix):]), true
	}
	return trimmed, false
}

// ParseLine parses one line of decklist text, such as "4x Primeval
// Titan", "2 Fire // Ice" or a bare card name (quantity 1). Slash face
// separators are normalized to FaceSeparator. The last return is false
// for blank lines or a quantity that does not parse.
func ParseLine(line string) (string, int, bool) {
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return "", 0, false
	}

	line = faceSeparators.ReplaceAllString(line, " "+FaceSeparator+" ")
	line = strings.Join(strings.Fields(line), " ")

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 {
		return line, 1, true
	}

	qty, err := strconv.Atoi(line[:i])
	if err != nil {
		return "", 0, false
	}

	name := line[i:]
	if strings.HasPrefix(name, "x") || strings.HasPrefix(name, "X") {
		name = name[1:]
	}
	name = strings.TrimSpace(name)

	return name, qty, true
}
