package cssxpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		css  string
		want string
	}{
		{"div", "descendant-or-self::div"},
		{"*", "descendant-or-self::*"},
		{"#main", "descendant-or-self::*[@id = 'main']"},
		{".btn", "descendant-or-self::*[@class and contains(concat(' ', normalize-space(@class), ' '), ' btn ')]"},
		{"a b", "descendant-or-self::a/descendant-or-self::*/b"},
		{"a > b", "descendant-or-self::a/b"},
		{"a ~ b", "descendant-or-self::a/following-sibling::b"},
		{"a + b", "descendant-or-self::a/following-sibling::*[(name() = 'b') and (position() = 1)]"},
		{"a, b", "descendant-or-self::a | descendant-or-self::b"},
		{"input[type=text]", "descendant-or-self::input[@type = 'text']"},
		{"a[href]", "descendant-or-self::a[@href]"},
		{"a[href^='http']", "descendant-or-self::a[@href and starts-with(@href, 'http')]"},
		{"a[href*=login]", "descendant-or-self::a[@href and contains(@href, 'login')]"},
		{"a[href$='.pdf']", "descendant-or-self::a[@href and substring(@href, string-length(@href)-3) = '.pdf']"},
		{"li:first-child", "descendant-or-self::li[count(preceding-sibling::*) = 0]"},
		{"li:nth-child(3)", "descendant-or-self::li[count(preceding-sibling::*) = 2]"},
		{"li:nth-child(odd)", "descendant-or-self::li[count(preceding-sibling::*) mod 2 = 0]"},
		{"li:nth-child(even)", "descendant-or-self::li[(count(preceding-sibling::*) + 1) mod 2 = 0]"},
		{"p:first-of-type", "descendant-or-self::p[count(preceding-sibling::p) = 0]"},
		{"li:not(.done)", "descendant-or-self::li[not(" + "@class and contains(concat(' ', normalize-space(@class), ' '), ' done ')" + ")]"},
		{`p:contains("it's")`, `descendant-or-self::p[contains(., "it's")]`},
		{
			"div#a.b",
			"descendant-or-self::div[(@id = 'a') and (@class and contains(concat(' ', normalize-space(@class), ' '), ' b '))]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.css, func(t *testing.T) {
			got, err := Translate(tt.css)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslatePrefix(t *testing.T) {
	got, err := Translator{Prefix: "descendant::"}.CSSToXPath("a")
	require.NoError(t, err)
	assert.Equal(t, "descendant::a", got)
}

func TestTranslateUnsupported(t *testing.T) {
	for _, css := range []string{"p::first-line", "a:hover", "*:first-of-type", "*:nth-of-type(2)"} {
		t.Run(css, func(t *testing.T) {
			_, err := Translate(css)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestTranslateSyntaxError(t *testing.T) {
	for _, css := range []string{"", "div[", "a >", "#", "li:nth-child(x)"} {
		t.Run(css, func(t *testing.T) {
			_, err := Translate(css)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestTranslateInvalidUTF8(t *testing.T) {
	for css, pos := range map[string]int{"\xff": 0, "div.a\xfe": 5, "p[title='\xc3']": 9} {
		_, err := Translate(css)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSyntax)
		var se *SyntaxError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, pos, se.Pos)
	}
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "'a'", literal("a"))
	assert.Equal(t, `"it's"`, literal("it's"))
	assert.Equal(t, `concat('a', "'", 'b"c')`, literal(`a'b"c`))
}
