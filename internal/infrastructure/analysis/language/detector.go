package language

import (
	"context"
	"strings"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// Stopword-profile language detection. Detection is advisory: empty or
// unrecognizable text falls back to the default code with zero confidence.
const defaultLanguage = "en"

var profiles = []struct {
	code      string
	stopwords map[string]bool
}{
	{"en", wordSet("the", "and", "of", "to", "in", "is", "that", "for", "with", "was", "on", "are", "this", "be", "it")},
	{"es", wordSet("el", "la", "de", "que", "y", "en", "un", "una", "los", "las", "por", "con", "para", "es", "del")},
	{"fr", wordSet("le", "la", "les", "de", "des", "et", "un", "une", "que", "pour", "dans", "est", "qui", "sur", "avec")},
	{"de", wordSet("der", "die", "das", "und", "ist", "von", "mit", "den", "im", "für", "auf", "ein", "eine", "nicht", "sich")},
	{"ru", wordSet("и", "в", "не", "на", "что", "с", "по", "это", "как", "для", "от", "был", "из", "его", "но")},
}

type Detector struct{}

func New() *Detector {
	return &Detector{}
}

func (d *Detector) DetectLanguage(_ context.Context, text string) (domain.LanguageGuess, error) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return domain.LanguageGuess{PrimaryLanguage: defaultLanguage, Confidence: 0.0}, nil
	}

	bestCode := defaultLanguage
	bestHits := 0
	for _, p := range profiles {
		hits := 0
		for _, tok := range tokens {
			if p.stopwords[strings.Trim(tok, ".,;:!?\"'()")] {
				hits++
			}
		}
		if hits > bestHits {
			bestCode = p.code
			bestHits = hits
		}
	}

	if bestHits == 0 {
		return domain.LanguageGuess{PrimaryLanguage: defaultLanguage, Confidence: 0.0}, nil
	}

	confidence := float64(bestHits) / float64(len(tokens))
	if confidence > 0.95 {
		confidence = 0.95
	}
	return domain.LanguageGuess{PrimaryLanguage: bestCode, Confidence: confidence}, nil
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
