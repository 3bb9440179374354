// Package lexicon holds the Spanish keyword lists used to pre-filter and
// interpret user messages, and the text folding they are matched under.
package lexicon

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultYAML []byte

// Lexicon is a set of folded keyword lists.
type Lexicon struct {
	Financial   []string `yaml:"financial"`
	Income      []string `yaml:"income"`
	Edit        []string `yaml:"edit"`
	EditIncome  []string `yaml:"edit_income"`
	EditExpense []string `yaml:"edit_expense"`
	Affirmative []string `yaml:"affirmative"`
	Negative    []string `yaml:"negative"`
	Cancel      []string `yaml:"cancel"`
	Categories  []string `yaml:"categories"`
	Sources     []string `yaml:"sources"`
	Stopwords   []string `yaml:"stopwords"`

	// Image hints, matched against the caption sent with a photo.
	Receipt        []string `yaml:"receipt"`
	BankStatement  []string `yaml:"bank_statement"`
	FinancialChart []string `yaml:"financial_chart"`

	stop map[string]bool
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Default returns the embedded lexicon.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("lexicon: embedded lexicon.yaml is invalid: %v", err))
		}
		defaultLex = lex
	})
	return defaultLex
}

// Parse decodes a YAML lexicon and folds every entry.
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	for _, list := range []*[]string{
		&lex.Financial, &lex.Income, &lex.Edit, &lex.EditIncome, &lex.EditExpense,
		&lex.Affirmative, &lex.Negative, &lex.Cancel, &lex.Categories, &lex.Sources, &lex.Stopwords,
		&lex.Receipt, &lex.BankStatement, &lex.FinancialChart,
	} {
		*list = foldAll(*list)
	}
	if len(lex.Financial) == 0 || len(lex.Affirmative) == 0 {
		return nil, fmt.Errorf("lexicon: financial and affirmative lists are required")
	}
	lex.stop = make(map[string]bool, len(lex.Stopwords))
	for _, w := range lex.Stopwords {
		lex.stop[w] = true
	}
	return &lex, nil
}

// IsStopword reports whether the folded token carries no meaning on its own.
func (l *Lexicon) IsStopword(token string) bool {
	return l.stop[token]
}

// Normalize lowercases s and strips diacritics so "Gané" and "gane" compare
// equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(out)
}

// ContainsAny reports whether the folded text contains any of the folded
// keywords as a substring. Used for coarse pre-filtering.
func ContainsAny(text string, keywords []string) bool {
	n := Normalize(text)
	for _, k := range keywords {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// Tokens splits folded text into runs of letters and digits.
func Tokens(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HasPhrase reports whether any keyword appears in text as a whole word or
// a whole run of words.
func HasPhrase(text string, keywords []string) bool {
	tokens := Tokens(text)
	for _, k := range keywords {
		if containsSeq(tokens, Tokens(k)) {
			return true
		}
	}
	return false
}

// FirstPhrase returns the first keyword (in list order) that appears as a
// whole word in text, or "".
func FirstPhrase(text string, keywords []string) string {
	tokens := Tokens(text)
	for _, k := range keywords {
		if containsSeq(tokens, Tokens(k)) {
			return k
		}
	}
	return ""
}

func containsSeq(tokens, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return false
	}
	for i := 0; i+len(seq) <= len(tokens); i++ {
		match := true
		for j := range seq {
			if tokens[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func foldAll(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		f := Normalize(strings.TrimSpace(w))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
