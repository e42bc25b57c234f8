package extractive

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"pdfqa/internal/domain"
)

// DefaultNotFound is answered when no context sentence shares a term with
// the question.
const DefaultNotFound = "The answer to this question is not available in the documents."

// Completer answers offline by quoting the context sentences that best match
// the question. Terms are weighted by their frequency in the context, so
// words the documents dwell on count more.
type Completer struct {
	maxSentences int
	notFound     string
	tokenPattern *regexp.Regexp
	sentencePat  *regexp.Regexp
	stopwords    map[string]struct{}
}

// New creates an extractive completer returning up to maxSentences sentences.
func New(maxSentences int, notFound string) *Completer {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	if notFound == "" {
		notFound = DefaultNotFound
	}
	return &Completer{
		maxSentences: maxSentences,
		notFound:     notFound,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`),
		sentencePat:  regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|$)`),
		stopwords:    defaultStopwords(),
	}
}

func (c *Completer) Name() string { return "extractive" }

// Complete ranks context sentences against the question.
func (c *Completer) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	question := c.terms(prompt.Question)
	if len(question) == 0 {
		return c.notFound, nil
	}

	var sentences []string
	seen := make(map[string]struct{})
	for _, s := range c.sentencePat.FindAllString(prompt.Context, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		// overlapping chunks repeat sentences
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		sentences = append(sentences, s)
	}

	// Compute word frequencies
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range c.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	var scores []pair
	for i, sent := range sentences {
		toks := c.tokens(sent)
		score := 0.0
		for _, tok := range toks {
			if _, ok := question[tok]; ok {
				score += 1 + freq[tok]
			}
		}
		if score == 0 {
			continue
		}
		// Normalize by sentence length to avoid bias
		score /= math.Sqrt(float64(len(toks)))
		scores = append(scores, pair{i, score})
	}
	if len(scores) == 0 {
		return c.notFound, nil
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	n := c.maxSentences
	if n > len(scores) {
		n = len(scores)
	}
	// Keep original order among selected
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, n)
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " "), nil
}

func (c *Completer) tokens(text string) []string {
	raw := c.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, ok := c.stopwords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (c *Completer) terms(text string) map[string]struct{} {
	toks := c.tokens(text)
	m := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		m[t] = struct{}{}
	}
	return m
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "whom", "how", "why", "when", "where", "does", "do", "did", "tell", "me", "please",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
