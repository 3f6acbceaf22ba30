// Package moderation censors forbidden words in message text before it
// reaches a room projection.
package moderation

import (
	"chat-sync/errors"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// position links a rune of the normalized text to its index in the original.
type position struct {
	normalized []rune
	original   []int
}

// NewModerator builds the Aho-Corasick automaton from the normalized word list.
// Words that normalize to nothing (pure punctuation) are skipped.
func NewModerator(words []string, censoredChar rune) (*Moderator, error) {
	var patterns [][]rune
	for _, word := range words {
		if p := fold([]rune(word)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, censoredChar: censoredChar}, nil
}

// Censor masks every forbidden word of text and returns the words found.
// Spacing and punctuation between masked letters are masked too.
func (m *Moderator) Censor(text string) (string, []string) {
	pos := index(text)
	if len(pos.normalized) == 0 {
		return text, nil
	}
	terms := m.matcher.MultiPatternSearch(pos.normalized, false)
	if len(terms) == 0 {
		return text, nil
	}

	out := []rune(text)
	var found []string
	for _, term := range terms {
		start, end := term.Pos, term.Pos+len(term.Word)
		if start < 0 || end > len(pos.original) {
			continue
		}
		for i := pos.original[start]; i <= pos.original[end-1]; i++ {
			out[i] = m.censoredChar
		}
		found = append(found, string(term.Word))
	}
	return string(out), found
}

func index(text string) position {
	runes := []rune(text)
	p := position{
		normalized: make([]rune, 0, len(runes)),
		original:   make([]int, 0, len(runes)),
	}
	for i, r := range runes {
		c := unleet(r)
		if ignored(c) {
			continue
		}
		p.normalized = append(p.normalized, unicode.ToLower(c))
		p.original = append(p.original, i)
	}
	return p
}

func fold(runes []rune) []rune {
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		c := unleet(r)
		if ignored(c) {
			continue
		}
		out = append(out, unicode.ToLower(c))
	}
	return out
}

// unleet maps common leet substitutions back to letters.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func ignored(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
