package nickname

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode/utf8"
)

const (
	// MinLength and MaxLength bound nicknames in runes, not bytes; most
	// nicknames are Korean.
	MinLength = 2
	MaxLength = 10
)

var (
	ErrTooShort    = errors.New("nickname must be at least 2 characters")
	ErrTooLong     = errors.New("nickname must be at most 10 characters")
	ErrForbidden   = errors.New("nickname contains a forbidden word")
	ErrSpecialChar = errors.New("nickname contains special characters")
)

// forbiddenWords are rejected as case-insensitive substrings.
var forbiddenWords = []string{
	"씨발", "시발", "sibal", "ㅅㅂ",
	"병신", "븅신", "ㅂㅅ",
	"개새", "개색",
	"존나", "ㅈㄴ",
	"니미", "느금",
	"꺼져", "뒤져",
	"섹스", "sex",
}

const specialChars = `!@#$%^&*()_+=[]{};':"\|,.<>/?`

// Validate checks a nickname against the forbidden-word list, length bounds,
// and the special-character set. The first failing rule is returned.
func Validate(nick string) error {
	lower := strings.ToLower(nick)
	for _, word := range forbiddenWords {
		if strings.Contains(lower, word) {
			return fmt.Errorf("%w: %q", ErrForbidden, word)
		}
	}

	switch n := utf8.RuneCountInString(nick); {
	case n < MinLength:
		return ErrTooShort
	case n > MaxLength:
		return ErrTooLong
	}

	if strings.ContainsAny(nick, specialChars) {
		return ErrSpecialChar
	}

	return nil
}

// randomNouns seed the random nickname generator offered on the join screen.
var randomNouns = []string{
	"아네트", "아멜리아", "아야", "앨리스", "에르핀", "에스피", "엘레나",
	"바롱", "버터", "베니", "벨라", "벨벳", "비비", "카렌", "캐시", "코미",
	"큐이", "클로에", "디아나", "오팔", "파트라", "포셔", "폴랑", "피코라",
	"그윈", "하이디", "헤일리", "힐데", "이프리트", "요미", "우이", "제이드",
	"쥬비", "라이카", "레비", "레테", "롤렛", "루포", "리스티", "리온", "림",
	"마고", "마리", "마요", "메죵", "멜루나", "모모", "뮤트", "미로", "나이아",
	"네르", "사리", "셰이디", "슈로", "스노키", "시온", "실라", "티그", "쵸피",
}

// Random returns a generated nickname: a noun plus a 0-999 suffix.
// The result always passes Validate.
func Random() string {
	noun := randomNouns[rand.Intn(len(randomNouns))]
	return fmt.Sprintf("%s%d", noun, rand.Intn(1000))
}
