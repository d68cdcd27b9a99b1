package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Транслит кириллицы по ГОСТ-подобной таблице; остальные не-латинские
// символы выпадают, и slug собирается из того, что осталось.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Slugify превращает название в URL-безопасную строку:
// транслитерация, нижний регистр, не-алфанумерика схлопывается в один дефис.
// Для чисто символьных названий возвращает пустую строку — решать вызывающему.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.Is(unicode.Cyrillic, r):
			b.WriteString(translit[r])
		default:
			b.WriteByte('-')
		}
	}

	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

// SlugifyOr — как Slugify, но с синтетическим фолбэком для пустого результата
// (эмодзи, иероглифы и прочее, что транслит не берёт).
func SlugifyOr(s, prefix string) string {
	if slug := Slugify(s); slug != "" {
		return slug
	}
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
