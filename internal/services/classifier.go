package services

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"lifeos/internal/models"
)

// Classifier is the boundary to domain-specific inference. Everything an
// agent needs from NLP comes through this interface so real model-backed
// implementations and test fakes are interchangeable.
type Classifier interface {
	// Classify maps entry text to zero or more (area, dimension) pairs
	// with a confidence-weighted signal.
	Classify(ctx context.Context, text string) ([]models.ClassificationLink, error)

	// Sentiment scores text in [-1, 1].
	Sentiment(ctx context.Context, text string) (float64, error)

	// DetectCommitments finds commitment language, returning an overall
	// confidence and the statements found.
	DetectCommitments(ctx context.Context, text string) (float64, []string, error)

	// DetectAmounts finds money mentions as (amount, currency) pairs.
	DetectAmounts(ctx context.Context, text string) ([]models.Transaction, error)

	// Summarize condenses a set of entries into chapter prose.
	Summarize(ctx context.Context, entries []string) (string, error)

	// Coherence scores how well a set of entries hangs together, in [0, 1].
	Coherence(ctx context.Context, entries []string) (float64, error)
}

// HeuristicClassifier is the built-in lexicon/pattern implementation. It is
// deliberately simple: production deployments plug a model-backed
// implementation behind the same interface.
type HeuristicClassifier struct{}

// NewHeuristicClassifier creates the default classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// areaKeywords maps lexicon terms to (area name, dimension).
var areaKeywords = map[string][2]string{
	"run": {"health", "exercise"}, "gym": {"health", "exercise"}, "workout": {"health", "exercise"},
	"sleep": {"health", "rest"}, "tired": {"health", "rest"},
	"meditat": {"health", "mind"}, "anxious": {"health", "mind"}, "stress": {"health", "mind"},
	"work": {"career", "work"}, "meeting": {"career", "work"}, "project": {"career", "work"},
	"study": {"growth", "learning"}, "read": {"growth", "learning"}, "course": {"growth", "learning"},
	"friend": {"relationships", "social"}, "family": {"relationships", "family"},
	"partner": {"relationships", "partner"}, "dinner": {"relationships", "social"},
	"save": {"finance", "savings"}, "spend": {"finance", "spending"},
	"budget": {"finance", "spending"}, "invest": {"finance", "savings"},
}

var positiveWords = []string{"happy", "great", "good", "proud", "love", "excited", "grateful", "calm", "won", "finished"}
var negativeWords = []string{"sad", "bad", "angry", "failed", "hate", "tired", "anxious", "stress", "worried", "broke"}

// commitmentMarkers are the phrases the detector treats as promise language.
var commitmentMarkers = []string{
	"i will", "i'll", "i promise", "i commit", "i'm going to", "i am going to",
	"from now on", "starting tomorrow", "i plan to", "i want to start",
}

var amountRe = regexp.MustCompile(`(?i)([$€£])\s?(\d+(?:[.,]\d{1,2})?)|(\d+(?:[.,]\d{1,2})?)\s?(usd|eur|gbp|dollars?|euros?)`)

// Classify maps keywords in the text to (area, dimension) links.
func (h *HeuristicClassifier) Classify(_ context.Context, text string) ([]models.ClassificationLink, error) {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var links []models.ClassificationLink

	for kw, pair := range areaKeywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		key := pair[0] + "/" + pair[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, models.ClassificationLink{
			AreaID:      pair[0],
			DimensionID: pair[1],
			Weight:      1,
			Confidence:  0.6,
			Signal:      2.5, // neutral midpoint; sentiment shifts it downstream
		})
	}
	return links, nil
}

// Sentiment scores text with a word lexicon, squashed into [-1, 1].
func (h *HeuristicClassifier) Sentiment(_ context.Context, text string) (float64, error) {
	lower := strings.ToLower(text)
	var score float64
	for _, w := range positiveWords {
		score += float64(strings.Count(lower, w))
	}
	for _, w := range negativeWords {
		score -= float64(strings.Count(lower, w))
	}
	return math.Tanh(score / 3), nil
}

// DetectCommitments looks for promise language. Confidence grows with the
// number of distinct markers and with explicitness ("promise"/"commit").
func (h *HeuristicClassifier) DetectCommitments(_ context.Context, text string) (float64, []string, error) {
	lower := strings.ToLower(text)
	var statements []string
	confidence := 0.0

	for _, sentence := range splitSentences(text) {
		sl := strings.ToLower(sentence)
		for _, marker := range commitmentMarkers {
			if strings.Contains(sl, marker) {
				statements = append(statements, strings.TrimSpace(sentence))
				confidence += 0.4
				break
			}
		}
	}
	if strings.Contains(lower, "promise") || strings.Contains(lower, "commit") {
		confidence += 0.3
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, statements, nil
}

// DetectAmounts extracts money mentions from the text.
func (h *HeuristicClassifier) DetectAmounts(_ context.Context, text string) ([]models.Transaction, error) {
	var txns []models.Transaction
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		var raw, currency string
		if m[1] != "" {
			raw, currency = m[2], symbolCurrency(m[1])
		} else {
			raw, currency = m[3], normalizeCurrency(m[4])
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			continue
		}
		txns = append(txns, models.Transaction{Amount: amount, Currency: currency})
	}
	return txns, nil
}

// Summarize joins the first sentence of each entry. A model-backed
// implementation replaces this with real summarization.
func (h *HeuristicClassifier) Summarize(_ context.Context, entries []string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	var firsts []string
	for _, e := range entries {
		if s := splitSentences(e); len(s) > 0 {
			firsts = append(firsts, strings.TrimSpace(s[0]))
		}
	}
	return strings.Join(firsts, " "), nil
}

// Coherence approximates thematic cohesion as vocabulary overlap between
// entries, in [0, 1].
func (h *HeuristicClassifier) Coherence(_ context.Context, entries []string) (float64, error) {
	if len(entries) <= 1 {
		return 1, nil
	}
	sets := make([]map[string]bool, len(entries))
	for i, e := range entries {
		sets[i] = wordSet(e)
	}
	var total, pairs float64
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			total += jaccard(sets[i], sets[j])
			pairs++
		}
	}
	return total / pairs, nil
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'")
		if len(w) > 3 {
			set[w] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

func symbolCurrency(sym string) string {
	switch sym {
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	default:
		return "USD"
	}
}

func normalizeCurrency(word string) string {
	switch strings.ToLower(word) {
	case "eur", "euro", "euros":
		return "EUR"
	case "gbp":
		return "GBP"
	default:
		return "USD"
	}
}
