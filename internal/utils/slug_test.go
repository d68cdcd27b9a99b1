package utils

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Привет, мир!", "privet-mir"},
		{"Go 1.23 — что нового", "go-1-23-chto-novogo"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"объявление", "obyavlenie"},
		{"🔥🔥🔥", ""},
	}

	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, ожидалось %q", c.in, got, c.want)
		}
	}
}

func TestSlugifyOr_Fallback(t *testing.T) {
	got := SlugifyOr("🔥🔥🔥", "tag")
	if !strings.HasPrefix(got, "tag-") {
		t.Fatalf("ожидался синтетический слаг с префиксом tag-, получено %q", got)
	}

	if got := SlugifyOr("Просто тег", "tag"); got != "prosto-teg" {
		t.Fatalf("фолбэк не должен срабатывать для нормального имени, получено %q", got)
	}
}
