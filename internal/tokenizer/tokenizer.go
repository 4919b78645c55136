package tokenizer

import (
	"regexp"
	"strings"
)

// nonAlphanumericRegex matches sequences of non-alphanumeric characters.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// acronymRegex handles cases like "HTTPRequest" -> "HTTP Request"
var acronymRegex = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)

// camelCaseRegex handles cases like "theOffice" -> "the Office" or "myAPI" -> "my API"
var camelCaseRegex = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// Token is a normalized term and its ordinal position in the source text.
type Token struct {
	Term     string
	Position int
}

// Tokenize converts a string into a slice of tokens.
// It splits camel/PascalCase, lowercases the string, and splits by non-alphanumeric characters.
func Tokenize(text string) []string {
	// 1. Split camelCase/PascalCase
	processedText := acronymRegex.ReplaceAllString(text, "$1 $2")
	processedText = camelCaseRegex.ReplaceAllString(processedText, "$1 $2")

	// 2. Lowercase
	lowerText := strings.ToLower(processedText)

	// 3. Split by non-alphanumeric characters
	split := nonAlphanumericRegex.Split(lowerText, -1)

	tokens := make([]string, 0) // Initialize as empty slice, not nil
	for _, s := range split {
		if s != "" { // Filter out empty strings
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// TokenizeWithPositions tokenizes text and numbers every token.
// Stop words are dropped but still consume a position, so the distance between
// the surviving tokens is the same in documents and in phrase queries.
func TokenizeWithPositions(text string, stopWords []string) []Token {
	terms := Tokenize(text)

	var stop map[string]struct{}
	if len(stopWords) > 0 {
		stop = make(map[string]struct{}, len(stopWords))
		for _, w := range stopWords {
			stop[strings.ToLower(w)] = struct{}{}
		}
	}

	tokens := make([]Token, 0, len(terms))
	for pos, term := range terms {
		if _, isStop := stop[term]; isStop {
			continue
		}
		tokens = append(tokens, Token{Term: term, Position: pos})
	}
	return tokens
}

// Length returns the number of positions text occupies, stop words included.
func Length(text string) int {
	return len(Tokenize(text))
}
