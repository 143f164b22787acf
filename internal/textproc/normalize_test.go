package textproc

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"lowercase and punctuation", "Free money! Click here to claim your prize!", "free money click here to claim your prize"},
		{"html tags", "<b>Hello</b> World", "hello world"},
		{"url", "Visit https://example.com/path?x=1 now", "visit URL now"},
		{"plain http url", "see http://a.b/c.", "see URL"},
		{"email", "Contact john.doe@example.com today", "contact EMAIL today"},
		{"numbers", "You won $1,000,000", "you won NUMBER NUMBER NUMBER"},
		{"number inside word kept", "abc123 456", "abc123 NUMBER"},
		{"time", "Meeting at 2 PM", "meeting at NUMBER pm"},
		{"invoice", "Invoice #12345 is attached", "invoice NUMBER is attached"},
		{"underscore is a word character", "foo_bar-baz", "foo_bar baz"},
		{"unicode letters", "ÉCOLE Straße", "école straße"},
		{"tag boundary", "free<br>money", "free money"},
		{"collapse whitespace", "a    b\n\nc", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Free money! Click here to claim your prize!",
		"URL<b>foo",
		"NUMBER@example.com",
		"http://example.com/URL and EMAIL",
		"İstanbul ΣΊΣΥΦΟΣ",
		"a<b",
		"12.5% off!!! call 555-0100",
		"ＦＵＬＬ width ١٢٣",
		"mixed_NUMBER_token 42_",
		"<a href=\"http://x.y\">click</a>",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeIdempotentRandom(t *testing.T) {
	pieces := []string{
		"a", "B", "1", "23", "<", ">", "@", "http://", "https://x.", "URL", "EMAIL",
		"NUMBER", " ", ".", "_", "é", "Σ", "!", "$", "%2F", "\t", "é", "İ", "-",
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		var b strings.Builder
		n := rng.Intn(12)
		for j := 0; j < n; j++ {
			b.WriteString(pieces[rng.Intn(len(pieces))])
		}
		in := b.String()
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeOutputShape(t *testing.T) {
	out := Normalize("  Hello,   <i>World</i>! Visit https://x.io or mail me@x.io 2024  ")
	assert.Equal(t, "hello world visit URL or mail EMAIL NUMBER", out)
	assert.Equal(t, strings.Join(strings.Fields(out), " "), out)
}
