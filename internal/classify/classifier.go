// Package classify turns market question text into a domain.Classification
// using substring and regexp matches against a configurable Vocabulary.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Keyword is the vocabulary-driven classifier. It is safe for concurrent use.
type Keyword struct {
	vocab      Vocabulary
	singleGame []*regexp.Regexp
}

// New compiles the vocabulary patterns.
func New(v Vocabulary) (*Keyword, error) {
	k := &Keyword{vocab: normalize(v)}
	for _, pat := range v.SingleGameRe {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("classify.New: pattern %q: %w", pat, err)
		}
		k.singleGame = append(k.singleGame, re)
	}
	return k, nil
}

// NewDefault builds a classifier over DefaultVocabulary.
func NewDefault() *Keyword {
	k, err := New(DefaultVocabulary())
	if err != nil {
		panic(err) // built-in patterns are constant
	}
	return k
}

// Classify never fails; unknown features are left at their zero value.
func (k *Keyword) Classify(question string, now time.Time) domain.Classification {
	q := strings.ToLower(question)
	return domain.Classification{
		Topics:       k.Topics(q),
		Category:     k.category(q),
		SingleGame:   k.isSingleGame(q),
		Fear:         k.fearGroup(q),
		DaysToExpiry: DaysToExpiry(q, now),
	}
}

// Topics returns the sorted, de-duplicated topics found in question.
func (k *Keyword) Topics(question string) []string {
	q := strings.ToLower(question)
	seen := make(map[string]struct{})
	for _, t := range k.vocab.Topics {
		if strings.Contains(q, t) {
			seen[t] = struct{}{}
		}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

func (k *Keyword) category(q string) domain.Category {
	for _, c := range k.vocab.Categories {
		if containsAny(q, c.Keywords) {
			return domain.Category(c.Name)
		}
	}
	return domain.CategoryOther
}

func (k *Keyword) isSingleGame(q string) bool {
	if containsAny(q, k.vocab.SingleGame) {
		return true
	}
	for _, re := range k.singleGame {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}

func (k *Keyword) fearGroup(q string) domain.FearGroup {
	for _, g := range k.vocab.Fear {
		if containsAny(q, g.Keywords) {
			return domain.FearGroup(g.Group)
		}
	}
	return domain.FearNone
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// normalize lowercases every keyword so YAML vocabularies can use any case.
func normalize(v Vocabulary) Vocabulary {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	out := Vocabulary{
		Topics:       lower(v.Topics),
		SingleGame:   lower(v.SingleGame),
		SingleGameRe: v.SingleGameRe,
	}
	for _, c := range v.Categories {
		out.Categories = append(out.Categories, CategoryKeywords{Name: c.Name, Keywords: lower(c.Keywords)})
	}
	for _, g := range v.Fear {
		out.Fear = append(out.Fear, FearKeywords{Group: g.Group, Keywords: lower(g.Keywords)})
	}
	return out
}
