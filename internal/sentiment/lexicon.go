package sentiment

import "strings"

// The lexicon below is a Morocco-context French sentiment analyzer:
// separate positive/negative term sets, Morocco-context phrases,
// intensifiers, negators and resolution words.
var (
	positiveWords = map[string]bool{
		"croissance": true, "hausse": true, "investissement": true,
		"reprise": true, "record": true, "bénéfice": true, "profit": true,
		"succès": true, "excellent": true, "solide": true, "stable": true,
		"confiance": true, "optimisme": true, "partenariat": true,
		"accord": true, "expansion": true, "dynamisme": true,
	}

	negativeWords = map[string]bool{
		"baisse": true, "crise": true, "chute": true, "récession": true,
		"déficit": true, "perte": true, "conflit": true, "tension": true,
		"sanction": true, "sanctions": true, "instabilité": true,
		"incertitude": true, "effondrement": true, "défaillance": true,
		"grève": true, "inflation": true, "risque": true,
	}

	positivePhrases = []string{
		"création d'emplois", "reconnaissance internationale",
		"normalisation diplomatique", "investissement étranger",
		"soutien international",
	}

	negativePhrases = []string{
		"sanctions contre", "contestation de", "troubles sociaux",
	}

	moroccoPositiveContext = map[string]bool{
		"maroc": true, "marocain": true, "marocaine": true,
		"sahara": true, "rabat": true, "royaume": true,
	}

	intensifiers = map[string]bool{
		"très": true, "fortement": true, "extrêmement": true,
		"massivement": true, "considérablement": true,
	}

	negators = map[string]bool{
		"pas": true, "ne": true, "aucun": true, "aucune": true, "sans": true,
	}

	resolutionWords = map[string]bool{
		"résoudre": true, "résolu": true, "solution": true,
		"historique": true, "accord": true, "apaisement": true,
	}
)

// LexiconResult is the output of the lexicon scorer.
type LexiconResult struct {
	Score      float64
	Label      string
	Confidence float64
}

// ScoreLexicon scores text deterministically: same text always yields the
// same score.
func ScoreLexicon(text string) LexiconResult {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return LexiconResult{Score: 0, Label: labelFor(0), Confidence: 0}
	}

	var pos, neg float64

	for i, tok := range tokens {
		bigram := ""
		if i+1 < len(tokens) {
			bigram = tok + " " + tokens[i+1]
		}

		isPos, isNeg, isPhrase := classify(tok, bigram)
		if !isPos && !isNeg {
			continue
		}

		weight := 1.0
		if isPhrase {
			weight *= 1.5
		}

		if i > 0 && negators[tokens[i-1]] {
			isPos, isNeg = isNeg, isPos
		}
		if i > 0 && intensifiers[tokens[i-1]] {
			weight *= 1.5
		}

		if withinWindow(tokens, i, 5, resolutionWords) && isNeg {
			isNeg = false
			isPos = true
			weight *= 1.5
		}

		if withinWindow(tokens, i, 5, moroccoPositiveContext) {
			if isPos {
				weight *= 1.3
			} else if isNeg {
				weight *= 1.3
			}
		}

		if isPos {
			pos += weight
		} else if isNeg {
			neg += weight
		}
	}

	var score float64
	if pos+neg > 0 {
		score = (pos - neg) / (pos + neg)
	}
	confidence := minF(1, absF(pos-neg)/float64(len(tokens))*2)

	return LexiconResult{Score: score, Label: labelFor(score), Confidence: confidence}
}

func classify(tok, bigram string) (isPos, isNeg, isPhrase bool) {
	for _, p := range positivePhrases {
		if bigram == p || tok == p {
			return true, false, true
		}
	}
	for _, p := range negativePhrases {
		if bigram == p || tok == p {
			return false, true, true
		}
	}
	if positiveWords[tok] {
		return true, false, false
	}
	if negativeWords[tok] {
		return false, true, false
	}
	return false, false, false
}

func withinWindow(tokens []string, center, window int, set map[string]bool) bool {
	start := center - window
	if start < 0 {
		start = 0
	}
	end := center + window
	if end >= len(tokens) {
		end = len(tokens) - 1
	}
	for i := start; i <= end; i++ {
		if set[tokens[i]] {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', ',', '.', '"', '!', '?', ';', ':', '(', ')':
			return true
		}
		return false
	})
	return fields
}

func labelFor(score float64) string {
	switch {
	case score >= 0.5:
		return "Very Positive"
	case score > 0.1:
		return "Positive"
	case score > -0.1:
		return "Neutral"
	case score > -0.5:
		return "Negative"
	default:
		return "Very Negative"
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absF(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
