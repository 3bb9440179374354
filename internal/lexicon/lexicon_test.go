package lexicon

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Gané":          "gane",
		"DÓLARES":       "dolares",
		"Alimentación":  "alimentacion",
		"S/ 50":         "s/ 50",
		"ya está listo": "ya esta listo",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDefault(t *testing.T) {
	lex := Default()

	t.Run("financial_prefilter", func(t *testing.T) {
		if !ContainsAny("Gasté 50 soles en almuerzo", lex.Financial) {
			t.Error("expected financial match")
		}
		if !ContainsAny("me pagaron hoy", lex.Financial) {
			t.Error("expected multi-word match")
		}
		if ContainsAny("hola, cómo estás?", lex.Financial) {
			t.Error("expected no match on greeting")
		}
	})

	t.Run("edit_keywords", func(t *testing.T) {
		if !ContainsAny("Quiero CAMBIAR mi gasto de comida", lex.Edit) {
			t.Error("expected edit keyword match")
		}
	})

	t.Run("stopwords", func(t *testing.T) {
		if !lex.IsStopword("de") {
			t.Error("expected 'de' to be a stopword")
		}
		if lex.IsStopword("comida") {
			t.Error("expected 'comida' not to be a stopword")
		}
	})

	t.Run("folded_and_deduplicated", func(t *testing.T) {
		seen := map[string]bool{}
		for _, w := range lex.Financial {
			if seen[w] {
				t.Errorf("duplicate entry %q", w)
			}
			seen[w] = true
			if w != Normalize(w) {
				t.Errorf("entry %q is not folded", w)
			}
		}
	})
}

func TestHasPhrase(t *testing.T) {
	lex := Default()
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"plain_si", "si", true},
		{"accented_si", "Sí, hazlo", true},
		{"phrase", "de acuerdo!", true},
		{"substring_is_not_word", "siempre", false},
		{"tal_vez", "tal vez", false},
		{"okay_inside_word", "okapi", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasPhrase(tc.text, lex.Affirmative); got != tc.want {
				t.Errorf("HasPhrase(%q): expected %v, got %v", tc.text, tc.want, got)
			}
		})
	}

	if got := FirstPhrase("ponlo en transporte por favor", lex.Categories); got != "transporte" {
		t.Errorf("expected transporte, got %q", got)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse([]byte("financial: [a]\n")); err == nil {
		t.Error("expected error when affirmative list missing")
	}
	if _, err := Parse([]byte("::not yaml")); err == nil {
		t.Error("expected decode error")
	}
}
