package str

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-pinyin"
)

var pyArgs = pinyin.NewArgs()

// Romanize converts simplified Chinese text to toneless pinyin and its
// abbreviation made of first letters of syllables. Runs of ASCII letters
// and digits are kept lower-cased in both results, other characters are
// dropped.
//
//	Romanize("阿司匹林") == ("asipilin", "aspl")
//	Romanize("维生素C") == ("weishengsuc", "wssc")
func Romanize(hans string) (full, abbr string) {
	var fb, ab strings.Builder
	var hasHan bool
	for _, tok := range tokens(hans) {
		if !isASCII(tok) {
			for _, s := range pinyin.LazyPinyin(tok, pyArgs) {
				if s == "" {
					continue
				}
				hasHan = true
				fb.WriteString(s)
				ab.WriteByte(s[0])
			}
			continue
		}
		tok = strings.ToLower(tok)
		fb.WriteString(tok)
		ab.WriteString(tok)
	}
	if !hasHan {
		return "", ""
	}
	return fb.String(), ab.String()
}

// tokens splits text into runs of Han characters and runs of ASCII letters
// and digits.
func tokens(s string) []string {
	var res []string
	var cur []rune
	var curASCII bool
	flush := func() {
		if len(cur) > 0 {
			res = append(res, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		var ascii bool
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			ascii = true
		case unicode.Is(unicode.Han, r):
		default:
			flush()
			continue
		}
		if len(cur) > 0 && ascii != curASCII {
			flush()
		}
		curASCII = ascii
		cur = append(cur, r)
	}
	flush()
	return res
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ShortTitle truncates a title to 45 characters if necesary.
func ShortTitle(title string) string {
	r := []rune(title)
	if len(r) < 45 {
		return title
	}
	return string(r[0:41]) + "..."
}
