package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTextStripsMarkup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "Hello there", "Hello there"},
		{"script content removed", "<script>alert(1)</script>Hi", "Hi"},
		{"tags stripped keeping text", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"style content removed", "<style>body{color:red}</style>Note", "Note"},
		{"entities decoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"whitespace trimmed", "  padded  ", "padded"},
		{"only markup becomes empty", "<script>evil()</script>", ""},
		{"entity-encoded markup stripped", "&lt;script&gt;alert(1)&lt;/script&gt;Hi", "Hi"},
		{"double-encoded markup stripped", "&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;Hi", "Hi"},
		{"encoded tag around text", "&lt;b&gt;bold&lt;/b&gt;", "bold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeText(tt.input))
		})
	}
}

func TestSanitizeTags(t *testing.T) {
	out := SanitizeTags([]string{"War", "  family  ", "war", "<b>History</b>", ""})
	assert.Equal(t, []string{"war", "family", "history"}, out)
}

func TestSanitizeTagsCapsLengthAndCount(t *testing.T) {
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}

	tags := []string{string(long)}
	for i := 0; i < 15; i++ {
		tags = append(tags, string(rune('b'+i)))
	}

	out := SanitizeTags(tags)
	assert.Len(t, out, 10)
	assert.Len(t, out[0], 50)
}

func TestSanitizeTagsTruncatesOnRuneBoundary(t *testing.T) {
	out := SanitizeTags([]string{strings.Repeat("ü", 60)})
	require.Len(t, out, 1)
	assert.True(t, utf8.ValidString(out[0]))
	assert.Equal(t, 50, utf8.RuneCountInString(out[0]))
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"full month name", "February 10, 2016", "2016-02-10"},
		{"no comma", "February 10 2016", "2016-02-10"},
		{"abbreviated month", "Feb 10, 2016", "2016-02-10"},
		{"day first", "10 February 2016", "2016-02-10"},
		{"already iso", "2016-02-10", "2016-02-10"},
		{"numeric with slashes", "02/10/2016", "2016-02-10"},
		{"embedded in sentence", "Written on March 3rd, 1944 at the front", "1944-03-03"},
		{"ordinal suffix", "July 4th, 1918", "1918-07-04"},
		{"implausible year", "January 1, 1200", ""},
		{"far future year", "January 1, 3000", ""},
		{"unrecognizable", "sometime last spring", ""},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDate(tt.input))
		})
	}
}
