package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const dictionarySize = 20_000

// dictionaryWord spells i in base 26 behind a "zq" marker, so that every
// word has the same length and none appears inside ordinary chat text.
func dictionaryWord(i int) string {
	var b strings.Builder
	b.WriteString("zq")
	for range 4 {
		b.WriteByte(byte('a' + i%26))
		i /= 26
	}
	return b.String()
}

func dictionary(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = dictionaryWord(i)
	}
	return words
}

func TestModerator_LargeDictionary(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator(dictionary(dictionarySize), replacementChar)
	req.NoError(err)

	word := dictionaryWord(4242)
	content, found := mod.Censor("see you at " + strings.ToUpper(word) + " tonight")
	req.Equal("see you at "+strings.Repeat("*", len(word))+" tonight", content)
	req.Equal([]string{word}, found)

	content, found = mod.Censor("nothing to hide in this one")
	req.Equal("nothing to hide in this one", content)
	req.Nil(found)
}

func BenchmarkNewModerator(b *testing.B) {
	words := dictionary(dictionarySize)
	b.ResetTimer()
	for range b.N {
		if _, err := NewModerator(words, replacementChar); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkModerator_Censor(b *testing.B) {
	mod, err := NewModerator(dictionary(dictionarySize), replacementChar)
	if err != nil {
		b.Fatal(err)
	}
	messages := []string{
		"hey, are we still on for lunch tomorrow?",
		"the build is green again, merging now",
		"z.q.a.a.a.b " + dictionaryWord(1) + " and " + dictionaryWord(19_999),
		strings.Repeat("a long message without anything to mask ", 20),
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		mod.Censor(messages[i%len(messages)])
	}
}
