// Package lemma implements the Lemma Analyzer (spec C3): it turns page
// text into a multiset of lemma occurrences, via HTML-to-text extraction,
// tokenization, per-token language detection, functional-part-of-speech
// filtering, and morphological normalization.
//
// The morphological normalization step itself — "obtain the normal
// form(s) of a token" — is behind the Provider interface so a real
// external morphological service can be substituted later; the two
// Providers shipped here (English via snowball stemming, Russian via a
// closed-class dictionary and suffix rules) are the in-process default.
package lemma

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/kljensen/snowball/english"
)

// Lang is a detected token language.
type Lang string

const (
	LangRussian Lang = "ru"
	LangEnglish Lang = "en"
	LangUnknown Lang = ""
)

// Provider obtains morphological information for a single lowercase
// token already known to belong to its language. It returns the token's
// first normal form and whether that form belongs to a functional part
// of speech (interjection, preposition, conjunction) that must be
// dropped rather than counted.
type Provider interface {
	Normalize(token string) (normalForm string, functional bool)
}

// Analyzer extracts lemma occurrence counts from page content. It is
// pure and safe for concurrent use once constructed.
type Analyzer struct {
	providers map[Lang]Provider
}

// New builds an Analyzer with the default English (snowball-backed) and
// Russian (dictionary-backed) providers. Construction cannot currently
// fail, but returns an error to satisfy the ANALYZER_INIT_ERROR contract
// for providers that load external resources.
func New() (*Analyzer, error) {
	return &Analyzer{
		providers: map[Lang]Provider{
			LangEnglish: englishProvider{},
			LangRussian: russianProvider{},
		},
	}, nil
}

// AnalyzeHTML strips html to its visible text and returns lemma counts.
func (a *Analyzer) AnalyzeHTML(html string) (map[string]int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return a.AnalyzeText(visibleText(doc)), nil
}

// AnalyzeDocument extracts lemma counts directly from an already-parsed
// document, avoiding a second parse of the same HTML.
func (a *Analyzer) AnalyzeDocument(doc *goquery.Document) map[string]int {
	if doc == nil {
		return map[string]int{}
	}
	return a.AnalyzeText(visibleText(doc))
}

// AnalyzeText runs the tokenize/detect/filter/normalize pipeline over
// free text and returns a lemma -> occurrence count map for a single
// page.
func (a *Analyzer) AnalyzeText(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range tokenize(text) {
		lang := detectLanguage(token)
		provider, ok := a.providers[lang]
		if !ok {
			continue
		}
		normal, functional := provider.Normalize(token)
		if functional || normal == "" {
			continue
		}
		counts[normal]++
	}
	return counts
}

// LemmaSet returns the distinct set of lemmas text analyzes to. This is
// the hook the (out-of-scope) search subsystem uses to expand a query
// term into its lemma forms.
func (a *Analyzer) LemmaSet(text string) map[string]struct{} {
	counts := a.AnalyzeText(text)
	set := make(map[string]struct{}, len(counts))
	for lemma := range counts {
		set[lemma] = struct{}{}
	}
	return set
}

func visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()
	return doc.Text()
}

// tokenize splits on runs of characters that are neither letters nor
// digits and lower-cases each token.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// detectLanguage classifies a single lowercase token as Russian
// (Cyrillic-only run), English (Latin-only run), or Unknown (mixed or
// neither), per spec §4.3(c).
func detectLanguage(token string) Lang {
	hasCyrillic, hasLatin, hasOther := false, false, false
	for _, r := range token {
		switch {
		case isCyrillic(r):
			hasCyrillic = true
		case isLatin(r):
			hasLatin = true
		default:
			hasOther = true
		}
	}
	switch {
	case hasCyrillic && !hasLatin && !hasOther:
		return LangRussian
	case hasLatin && !hasCyrillic && !hasOther:
		return LangEnglish
	default:
		return LangUnknown
	}
}

func isCyrillic(r rune) bool {
	return (r >= 0x0400 && r <= 0x04FF) || (r >= 0x0500 && r <= 0x052F)
}

func isLatin(r rune) bool {
	return (r >= 'a' && r <= 'z')
}

// englishProvider normalizes English tokens via Porter2/Snowball
// stemming and filters a closed-class list of interjections,
// prepositions, and conjunctions (spec's INTJ|PREP|CONJ classes).
type englishProvider struct{}

func (englishProvider) Normalize(token string) (string, bool) {
	if _, functional := englishFunctionalWords[token]; functional {
		return "", true
	}
	return english.Stem(token, false), false
}

// russianProvider normalizes Russian tokens with a light inflectional
// suffix stripper and filters a closed-class dictionary of interjections
// (МЕЖД), prepositions (ПРЕДЛ), and conjunctions (СОЮЗ). There is no
// external Russian morphological analyzer wired into this module (see
// DESIGN.md); this provider approximates step (d)/(e) of spec §4.3
// without one.
type russianProvider struct{}

func (russianProvider) Normalize(token string) (string, bool) {
	if _, functional := russianFunctionalWords[token]; functional {
		return "", true
	}
	return stripRussianSuffix(token), false
}

// russianInflectionalSuffixes are common case/number endings, longest
// first so e.g. "ами" is tried before "и".
var russianInflectionalSuffixes = []string{
	"иями", "ями", "ами", "его", "ому", "ему",
	"ах", "ях", "ов", "ев", "ей", "ию", "ие", "ия", "ое", "ая", "ые", "ых",
	"ий", "ый", "ой", "ом", "ем", "ям",
	"а", "я", "о", "е", "и", "й", "ы", "ь", "у", "ю",
}

func stripRussianSuffix(token string) string {
	runes := []rune(token)
	if len(runes) <= 3 {
		return token
	}
	for _, suffix := range russianInflectionalSuffixes {
		s := []rune(suffix)
		if len(runes) <= len(s)+2 {
			continue
		}
		if strings.HasSuffix(token, suffix) {
			return string(runes[:len(runes)-len(s)])
		}
	}
	return token
}

var englishFunctionalWords = setOf(
	// interjections
	"oh", "ah", "wow", "ouch", "hey", "alas", "hmm", "oops", "yay", "ugh",
	// prepositions
	"in", "on", "at", "by", "for", "with", "about", "against", "between",
	"into", "through", "during", "before", "after", "above", "below",
	"to", "from", "up", "down", "of", "off", "over", "under", "again",
	"further", "once", "out",
	// conjunctions
	"and", "but", "or", "nor", "so", "yet", "because", "although",
	"since", "unless", "while", "whereas", "though", "if", "as",
)

var russianFunctionalWords = setOf(
	// interjections (МЕЖД)
	"ах", "ох", "эй", "ну", "увы", "ого", "ура", "эх",
	// prepositions (ПРЕДЛ)
	"в", "на", "с", "со", "к", "ко", "от", "до", "из", "изо", "у", "о",
	"об", "обо", "за", "над", "под", "подо", "при", "про", "для", "без",
	"безо", "через", "между", "перед", "передо", "по", "из-за", "из-под",
	// conjunctions (СОЮЗ)
	"и", "а", "но", "да", "или", "либо", "что", "чтобы", "как", "когда",
	"пока", "если", "хотя", "потому", "поэтому", "также", "тоже",
)

func setOf(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
