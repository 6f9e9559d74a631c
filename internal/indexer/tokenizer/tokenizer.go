// Package tokenizer splits text into terms for the index and for queries.
// A term is a maximal run of letters and digits. Markup spans from '<' up to
// the next '>' are dropped. Terms keep their original case.
package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

// Tokenize returns the terms of text in the order they appear. Repeated
// terms are kept.
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/6)
	scan(text, func(term string) {
		tokens = append(tokens, term)
	})
	return tokens
}

// CountTerms returns the number of occurrences of every term in text. The
// counts add up to len(Tokenize(text)).
func CountTerms(text string) map[string]int {
	counts := make(map[string]int)
	scan(text, func(term string) {
		counts[term]++
	})
	return counts
}

// scan walks text once and calls emit for every term.
func scan(text string, emit func(term string)) {
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == '<':
			i += size
			for i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
				i += size
				if r == '>' {
					break
				}
			}
		case isTermRune(r):
			start := i
			i += size
			for i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
				if !isTermRune(r) {
					break
				}
				i += size
			}
			emit(text[start:i])
		default:
			i += size
		}
	}
}

func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
