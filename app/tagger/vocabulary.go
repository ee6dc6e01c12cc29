package tagger

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yml
var defaultVocabulary []byte

// Vocabulary holds the word lists that shape tag generation. It is treated as
// an immutable value: helpers never modify the slices in place.
type Vocabulary struct {
	Banned    []string `yaml:"banned"`
	Stopwords []string `yaml:"stopwords"`
	Defaults  []string `yaml:"defaults"`
}

// LoadVocabulary reads a YAML vocabulary file. An empty path yields the
// embedded default vocabulary.
func LoadVocabulary(path string) (Vocabulary, error) {
	data := defaultVocabulary
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Vocabulary{}, fmt.Errorf("failed to read vocabulary: %w", err)
		}
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary YAML: %w", err)
	}

	return v.normalized(), nil
}

func DefaultVocabulary() Vocabulary {
	v, err := LoadVocabulary("")
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
	}
	return v
}

// WithBanned returns a copy with extra banned words appended.
func (v Vocabulary) WithBanned(words ...string) Vocabulary {
	out := v
	out.Banned = append(append([]string(nil), v.Banned...), words...)
	return out.normalized()
}

// WithDefaults returns a copy whose default tag list is replaced.
func (v Vocabulary) WithDefaults(tags ...string) Vocabulary {
	out := v
	out.Defaults = append([]string(nil), tags...)
	return out.normalized()
}

// IsBanned reports whether s equals or contains any banned term,
// ignoring case.
func (v Vocabulary) IsBanned(s string) bool {
	lower := lowerCase(s)
	for _, term := range v.Banned {
		if term != "" && strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func (v Vocabulary) isStopword(token string) bool {
	for _, w := range v.Stopwords {
		if w == token {
			return true
		}
	}
	return false
}

func (v Vocabulary) normalized() Vocabulary {
	return Vocabulary{
		Banned:    cleanList(v.Banned, true),
		Stopwords: cleanList(v.Stopwords, true),
		Defaults:  cleanList(v.Defaults, false),
	}
}

func cleanList(words []string, lower bool) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if lower {
			w = lowerCase(w)
		}
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
