// Package practice - counter.go считает, сколько раз аффирмация написана в сообщении.
package practice

import (
	"strings"
	"unicode"
)

// CountRepetitions возвращает число строк text, совпадающих с аффирмацией.
// Регистр, лишние пробелы, нумерация в начале ("1.", "2)")
// и пунктуация в конце не важны.
func CountRepetitions(affirmation, text string) int {
	want := normalizeLine(affirmation)
	if want == "" {
		return 0
	}

	count := 0
	for _, line := range strings.Split(text, "\n") {
		if normalizeLine(line) == want {
			count++
		}
	}
	return count
}

func normalizeLine(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ё", "е")
	s = trimNumbering(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// trimNumbering убирает "12." / "3)" / "4 -" в начале строки.
func trimNumbering(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return s
	}
	rest := strings.TrimLeft(s[i:], " ")
	if rest == "" {
		return s
	}
	switch rest[0] {
	case '.', ')', '-':
		return strings.TrimSpace(rest[1:])
	}
	return s
}
