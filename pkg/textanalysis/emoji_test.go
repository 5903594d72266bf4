package textanalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeepsGraphemeClusters(t *testing.T) {
	ex := NewEmojiExtractor()

	cases := []struct {
		name string
		text string
		want []string
	}{
		{"plain text", "hello there", nil},
		{"empty", "", nil},
		{"single", "ok 😂", []string{"😂"}},
		{"repeated", "😂😂 lol 😂", []string{"😂", "😂", "😂"}},
		{"skin tone", "👍🏽 nice", []string{"👍🏽"}},
		{"zwj family", "👨‍👩‍👧 home", []string{"👨‍👩‍👧"}},
		{"flag", "going to 🇮🇳", []string{"🇮🇳"}},
		{"heart with selector", "❤️", []string{"❤️"}},
		{"keycap", "press 1️⃣", []string{"1️⃣"}},
		{"whitespace ignored", " \t\n", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ex.Extract(tc.text))
		})
	}
}

func TestIsEmojiRejectsLettersAndDigits(t *testing.T) {
	for _, s := range []string{"a", "Z", "7", " ", "é", "中"} {
		assert.False(t, IsEmoji(s), s)
	}
	for _, s := range []string{"🔥", "☀", "✅", "✔", "⭐", "🤣", "🫠", "❤", "🅰", "🈚"} {
		assert.True(t, IsEmoji(s), s)
	}
}

func TestIsEmojiRejectsDingbats(t *testing.T) {
	for _, s := range []string{"★", "✓", "♫", "☆", "✗", "❝", "➜", "🄰"} {
		assert.False(t, IsEmoji(s), s)
	}
	assert.Nil(t, NewEmojiExtractor().Extract("done ✓ ★★★"))
}

func TestEmojiRangesSorted(t *testing.T) {
	for i := 1; i < len(emojiRanges); i++ {
		assert.Less(t, emojiRanges[i-1][1], emojiRanges[i][0], "range %d overlaps", i)
	}
}
