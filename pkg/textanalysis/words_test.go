package textanalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordsFiltersStopwordsAndNumbers(t *testing.T) {
	tok := NewTokenizer(nil)

	got := tok.Words("The PIZZA's here, and it's 2023! Pizza party at 9")
	assert.Equal(t, []string{"pizza", "pizza", "party"}, got)
}

func TestWordsExtraStopwords(t *testing.T) {
	tok := NewTokenizer([]string{" Media ", "omitted"})

	assert.Equal(t, []string{"photo"}, tok.Words("<Media omitted> photo"))
}

func TestWordsUnicodeLetters(t *testing.T) {
	tok := NewTokenizer(nil)

	assert.Equal(t, []string{"café", "naïve"}, tok.Words("Café naïve 😂"))
}

func TestWordsEmpty(t *testing.T) {
	tok := NewTokenizer(nil)

	assert.Empty(t, tok.Words(""))
	assert.Empty(t, tok.Words("   ...  "))
}
