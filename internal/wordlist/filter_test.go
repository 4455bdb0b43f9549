package wordlist

import "testing"

func TestFilterEnglishASCII(t *testing.T) {
	filter := FilterForLang("en")
	if !filter("hello") {
		t.Fatalf("expected hello to pass english filter")
	}
	for _, word := range []string{"résumé", "naïve", "don’t", "co-op", ""} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterLettersKeepsAccents(t *testing.T) {
	filter := FilterForLang("fr")
	for _, word := range []string{"élève", "garçon", "chat"} {
		if !filter(word) {
			t.Fatalf("expected %q to pass", word)
		}
	}
	for _, word := range []string{"aujourd'hui", "c'est", "porte-monnaie", ""} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}
