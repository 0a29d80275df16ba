// Package knowledge answers canned FAQ questions, by exact or closest match.
package knowledge

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

//go:embed faq.yaml
var defaultFAQ []byte

// Cutoff is the minimum similarity ratio a fuzzy match must reach.
const Cutoff = 0.6

type Entry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type document struct {
	Entries []Entry `yaml:"entries"`
}

// Base is an immutable, ordered set of canonical questions and answers.
type Base struct {
	entries []Entry
	lowered []string
}

func New(entries []Entry) (*Base, error) {
	b := &Base{
		entries: make([]Entry, 0, len(entries)),
		lowered: make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if e.Question == "" || e.Answer == "" {
			return nil, fmt.Errorf("faq entry %q: empty question or answer", e.Question)
		}
		b.entries = append(b.entries, e)
		b.lowered = append(b.lowered, strings.ToLower(e.Question))
	}
	return b, nil
}

func Load(r io.Reader) (*Base, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}
	return New(doc.Entries)
}

// LoadFile loads the FAQ at path, or the built-in FAQ when path is empty.
func LoadFile(path string) (*Base, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open faq: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Default() (*Base, error) {
	return Load(strings.NewReader(string(defaultFAQ)))
}

func (b *Base) Len() int { return len(b.entries) }

// ExactMatch returns the answer whose question equals the utterance, ignoring case.
func (b *Base) ExactMatch(utterance string) (string, bool) {
	lower := strings.ToLower(utterance)
	for i, q := range b.lowered {
		if q == lower {
			return b.entries[i].Answer, true
		}
	}
	return "", false
}

// FuzzyMatch returns the answer of the question most similar to the utterance,
// provided its ratio reaches Cutoff. Equal ratios keep the earlier question.
func (b *Base) FuzzyMatch(utterance string) (string, bool) {
	word := chars(strings.ToLower(utterance))
	best, bestScore := -1, 0.0
	for i, q := range b.lowered {
		m := difflib.NewMatcher(chars(q), word)
		if m.RealQuickRatio() < Cutoff || m.QuickRatio() < Cutoff {
			continue
		}
		score := m.Ratio()
		if score >= Cutoff && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return "", false
	}
	return b.entries[best].Answer, true
}

func chars(s string) []string {
	return strings.Split(s, "")
}
