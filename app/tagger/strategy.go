package tagger

import "context"

type Outcome int

const (
	OutcomeUsable Outcome = iota
	OutcomeInsufficient
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUsable:
		return "usable"
	case OutcomeInsufficient:
		return "insufficient"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what a strategy hands back to the Generator. Strategies never
// return errors directly; a failure is an Outcome.
type Result struct {
	Tags    []string
	Outcome Outcome
	Err     error
}

type Strategy interface {
	Name() string
	Suggest(ctx context.Context, title, body string) Result
}

// topUp fills tags from the default list, skipping tags already present
// and banned defaults, then truncates to n.
func topUp(tags []string, vocab Vocabulary, n int) []string {
	out := append([]string(nil), tags...)
	present := make(map[string]bool, len(out))
	for _, tag := range out {
		present[lowerCase(tag)] = true
	}

	for cursor := 0; len(out) < n && cursor < len(vocab.Defaults); cursor++ {
		tag := vocab.Defaults[cursor]
		key := lowerCase(tag)
		if present[key] || vocab.IsBanned(tag) {
			continue
		}
		present[key] = true
		out = append(out, tag)
	}

	if len(out) > n {
		out = out[:n]
	}
	return out
}
