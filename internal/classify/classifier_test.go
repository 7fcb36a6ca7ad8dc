package classify_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclaw/internal/classify"
	"github.com/alejandrodnm/polyclaw/internal/domain"
)

var now = time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

func TestClassify_FearGeopolitics(t *testing.T) {
	c := classify.NewDefault().Classify("Will the US strike Iran before April?", now)

	assert.Equal(t, domain.FearWar, c.Fear)
	assert.True(t, c.IsFear())
	assert.Equal(t, domain.CategoryGeopolitics, c.Category)
	assert.Equal(t, []string{"iran"}, c.Topics)
	assert.False(t, c.SingleGame)
}

func TestClassify_TopicsSorted(t *testing.T) {
	c := classify.NewDefault().Classify("Will Russia and China sign a pact with Iran?", now)
	assert.Equal(t, []string{"china", "iran", "russia"}, c.Topics)
}

func TestClassify_SingleGameSports(t *testing.T) {
	k := classify.NewDefault()
	for _, q := range []string{
		"Lakers vs. Celtics",
		"Will Arsenal win on 2026-03-04?",
		"Spread: Chiefs (-3.5)",
		"Will the Nuggets beat the Suns?",
	} {
		assert.True(t, k.Classify(q, now).SingleGame, q)
	}
	assert.False(t, k.Classify("Will Bitcoin reach $150k in 2026?", now).SingleGame)
}

func TestClassify_CategoryOrderAndFallback(t *testing.T) {
	k := classify.NewDefault()
	assert.Equal(t, domain.CategoryEconomy, k.Classify("Will the Fed cut interest rates?", now).Category)
	assert.Equal(t, domain.CategoryPolitics, k.Classify("Who will win the 2028 presidential election?", now).Category)
	assert.Equal(t, domain.CategoryOther, k.Classify("Will aliens be confirmed?", now).Category)
}

func TestClassify_FearGroups(t *testing.T) {
	k := classify.NewDefault()
	assert.Equal(t, domain.FearCollapse, k.Classify("Stock market crash in 2026?", now).Fear)
	assert.Equal(t, domain.FearExtreme, k.Classify("Martial law declared in South Korea?", now).Fear)
	assert.Equal(t, domain.FearNone, k.Classify("Will OpenAI release GPT-6?", now).Fear)
}

func TestClassify_IsPure(t *testing.T) {
	k := classify.NewDefault()
	q := "Will China invade Taiwan by December 31, 2026?"
	assert.Equal(t, k.Classify(q, now), k.Classify(q, now))
}

func TestDaysToExpiry(t *testing.T) {
	days := func(q string) *int { return classify.DaysToExpiry(q, now) }

	d := days("Will X happen by March 15, 2026?")
	require.NotNil(t, d)
	assert.Equal(t, 14, *d)

	d = days("Ceasefire by Mar 8?")
	require.NotNil(t, d)
	assert.Equal(t, 7, *d)

	d = days("Resolves 2026-04-01")
	require.NotNil(t, d)
	assert.Equal(t, 31, *d)

	d = days("Did it happen by January 10?")
	require.NotNil(t, d)
	assert.Equal(t, -50, *d)

	assert.Nil(t, days("Will Bitcoin hit 200k?"))
	assert.Nil(t, days("Will it happen by February 30?"))
}

func TestLoadVocabulary_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
topics: [Mars, moon]
fear:
  - group: war
    keywords: [Skirmish]
`), 0o644))

	v, err := classify.LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mars", "moon"}, v.Topics)
	assert.NotEmpty(t, v.SingleGame)

	k, err := classify.New(v)
	require.NoError(t, err)
	c := k.Classify("Skirmish near the moon and Mars?", now)
	assert.Equal(t, []string{"mars", "moon"}, c.Topics)
	assert.Equal(t, domain.FearWar, c.Fear)
}

func TestNew_BadPattern(t *testing.T) {
	v := classify.DefaultVocabulary()
	v.SingleGameRe = []string{"("}
	_, err := classify.New(v)
	assert.Error(t, err)
}
