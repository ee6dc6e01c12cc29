package tagger

import (
	"cmp"
	"context"
	"slices"
	"unicode/utf8"
)

const (
	minTokenRunes      = 4
	minTitleTokenRunes = 3
	titleBoost         = 2
)

// LocalStrategy ranks words by frequency with a boost for words that also
// appear in the title. Output depends only on its inputs and vocabulary.
type LocalStrategy struct {
	vocab Vocabulary
	count int
}

func NewLocalStrategy(vocab Vocabulary, count int) *LocalStrategy {
	return &LocalStrategy{vocab: vocab, count: count}
}

func (s *LocalStrategy) Name() string {
	return "local"
}

func (s *LocalStrategy) Suggest(_ context.Context, title, body string) Result {
	return Result{Tags: s.Generate(title, body), Outcome: OutcomeUsable}
}

func (s *LocalStrategy) Generate(title, body string) []string {
	title = StripHTML(title)
	body = StripHTML(body)

	titleTokens := make(map[string]bool)
	for _, token := range tokenize(title, minTokenRunes) {
		titleTokens[token] = true
	}

	counts := make(map[string]int)
	for _, token := range tokenize(title+" "+body, minTokenRunes) {
		if s.qualifies(token) {
			counts[token]++
		}
	}

	type scored struct {
		token string
		score int
	}
	ranked := make([]scored, 0, len(counts))
	for token, n := range counts {
		if titleTokens[token] {
			n *= titleBoost
		}
		ranked = append(ranked, scored{token: token, score: n})
	}
	slices.SortFunc(ranked, func(a, b scored) int {
		return cmp.Or(cmp.Compare(b.score, a.score), cmp.Compare(a.token, b.token))
	})

	var tags []string
	for _, r := range ranked {
		if len(tags) == s.count {
			break
		}
		tags = append(tags, capitalize(r.token))
	}

	if len(ranked) == 0 {
		tags = s.fromTitle(title)
	}

	return topUp(tags, s.vocab, s.count)
}

// fromTitle picks the longest qualifying title words when the combined text
// yielded nothing. Shorter words are allowed here.
func (s *LocalStrategy) fromTitle(title string) []string {
	seen := make(map[string]bool)
	var candidates []string
	for _, token := range tokenize(title, minTitleTokenRunes) {
		if seen[token] || !s.qualifies(token) {
			continue
		}
		seen[token] = true
		candidates = append(candidates, token)
	}

	slices.SortFunc(candidates, func(a, b string) int {
		return cmp.Or(cmp.Compare(utf8.RuneCountInString(b), utf8.RuneCountInString(a)), cmp.Compare(a, b))
	})

	var tags []string
	for _, token := range candidates {
		if len(tags) == s.count {
			break
		}
		tags = append(tags, capitalize(token))
	}
	return tags
}

func (s *LocalStrategy) qualifies(token string) bool {
	return !isNumeric(token) && !s.vocab.isStopword(token) && !s.vocab.IsBanned(token)
}
