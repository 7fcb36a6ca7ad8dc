package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the keyword lists the classifier matches against.
// All entries are matched as lowercase substrings of the question.
type Vocabulary struct {
	Topics       []string           `yaml:"topics"`
	Categories   []CategoryKeywords `yaml:"categories"`
	SingleGame   []string           `yaml:"single_game"`
	SingleGameRe []string           `yaml:"single_game_patterns"`
	Fear         []FearKeywords     `yaml:"fear"`
}

// CategoryKeywords is one ordered category group. The first group with a hit wins.
type CategoryKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// FearKeywords is one ordered fear group.
type FearKeywords struct {
	Group    string   `yaml:"group"`
	Keywords []string `yaml:"keywords"`
}

var nbaTeams = []string{
	"celtics", "warriors", "lakers", "rockets", "hornets", "knicks", "nets", "heat",
	"bucks", "76ers", "nuggets", "suns", "thunder", "cavaliers", "pacers", "pistons",
	"hawks", "bulls", "mavericks", "spurs", "clippers", "kings", "grizzlies",
	"pelicans", "timberwolves", "trail blazers", "jazz", "wizards", "raptors", "magic",
}

// DefaultVocabulary returns the built-in keyword lists.
func DefaultVocabulary() Vocabulary {
	singleGame := []string{
		" vs. ", " vs ", "win on 202", "game on", "match on", "spread:", "spread ",
		"over/under", "moneyline", "total points", "total goals",
	}
	singleGame = append(singleGame, nbaTeams...)

	return Vocabulary{
		Topics: []string{
			"iran", "russia", "ukraine", "china", "taiwan", "israel", "bitcoin", "btc",
			"fed", "trump", "biden", "canada", "alien", "anthropic", "google", "openai",
			"nato", "north korea", "venezuela",
		},
		Categories: []CategoryKeywords{
			{Name: "sports", Keywords: []string{
				"nba", "nfl", "nhl", "mlb", "premier league", "champions league", "world cup",
				"super bowl", "playoffs", "championship", "grand slam", "f1 ", "ufc",
			}},
			{Name: "geopolitics", Keywords: []string{
				"war", "invade", "invasion", "ceasefire", "strike", "military", "nato",
				"sanction", "nuclear", "missile", "troops", "iran", "russia", "ukraine",
				"israel", "taiwan", "north korea",
			}},
			{Name: "politics", Keywords: []string{
				"election", "president", "senate", "congress", "governor", "trump", "biden",
				"prime minister", "parliament", "impeach", "nominee", "cabinet",
			}},
			{Name: "economy", Keywords: []string{
				"fed", "interest rate", "inflation", "recession", "gdp", "cpi", "tariff",
				"unemployment", "s&p", "nasdaq", "bitcoin", "btc", "stock", "default",
			}},
		},
		SingleGame:   singleGame,
		SingleGameRe: []string{`win on 202\d-\d{2}-\d{2}`},
		Fear: []FearKeywords{
			{Group: "war", Keywords: []string{"strike", "attack", "invade", "invasion", "war ", "bomb", "military action"}},
			{Group: "collapse", Keywords: []string{"crash", "recession", "default", "collapse", "crisis"}},
			{Group: "extreme", Keywords: []string{"nuclear", "assassination", "coup", "martial law"}},
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Sections left empty in the
// file keep their built-in defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("classify.LoadVocabulary: read %s: %w", path, err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("classify.LoadVocabulary: parse: %w", err)
	}

	def := DefaultVocabulary()
	if len(v.Topics) == 0 {
		v.Topics = def.Topics
	}
	if len(v.Categories) == 0 {
		v.Categories = def.Categories
	}
	if len(v.SingleGame) == 0 {
		v.SingleGame = def.SingleGame
	}
	if len(v.SingleGameRe) == 0 {
		v.SingleGameRe = def.SingleGameRe
	}
	if len(v.Fear) == 0 {
		v.Fear = def.Fear
	}
	return v, nil
}
