package tagger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minRemoteTags   = 3
	maxPromptRunes  = 2000
	candidateCutset = " \t\r\n\"'`.;:"
)

// Completer sends a prompt to a text generation service and returns its
// unstructured reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type RemoteStrategy struct {
	completer Completer
	vocab     Vocabulary
	count     int
}

func NewRemoteStrategy(completer Completer, vocab Vocabulary, count int) *RemoteStrategy {
	return &RemoteStrategy{completer: completer, vocab: vocab, count: count}
}

func (s *RemoteStrategy) Name() string {
	return "remote"
}

func (s *RemoteStrategy) Suggest(ctx context.Context, title, body string) Result {
	prompt := BuildPrompt(title, body, s.count, s.vocab.Banned)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("remote completion failed: %w", err)}
	}

	candidates := ParseTags(reply, s.vocab)
	if len(candidates) < min(minRemoteTags, s.count) {
		return Result{Tags: candidates, Outcome: OutcomeInsufficient}
	}

	return Result{Tags: topUp(candidates, s.vocab, s.count), Outcome: OutcomeUsable}
}

func BuildPrompt(title, body string, count int, banned []string) string {
	text := StripHTML(title + " " + body)
	if utf8.RuneCountInString(text) > maxPromptRunes {
		text = string([]rune(text)[:maxPromptRunes])
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest exactly %d topical hashtags for the following article.\n", count)
	sb.WriteString("Format each tag as a single CamelCase word without spaces or the # sign.\n")
	sb.WriteString("Return only the tags separated by commas.\n")
	if len(banned) > 0 {
		fmt.Fprintf(&sb, "Do not use or include these words: %s.\n", strings.Join(banned, ", "))
	}
	sb.WriteString("\nArticle:\n")
	sb.WriteString(text)
	return sb.String()
}

// ParseTags turns a free-text comma separated reply into clean CamelCase
// tags, dropping banned and duplicate candidates. Order is preserved.
func ParseTags(reply string, vocab Vocabulary) []string {
	var tags []string
	seen := make(map[string]bool)

	for _, raw := range strings.Split(reply, ",") {
		candidate := strings.Trim(raw, candidateCutset)
		candidate = strings.TrimPrefix(candidate, "#")
		candidate = camelCase(candidate)
		if candidate == "" {
			continue
		}

		key := lowerCase(candidate)
		if seen[key] || vocab.IsBanned(candidate) {
			continue
		}
		seen[key] = true
		tags = append(tags, candidate)
	}

	return tags
}
