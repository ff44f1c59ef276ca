package domain

import "time"

// CardType selects the note model used for a flashcard
type CardType string

const (
	CardSentence CardType = "sentence"
	CardVocab    CardType = "vocab"
)

// Valid reports whether t is a known card type
func (t CardType) Valid() bool {
	return t == CardSentence || t == CardVocab
}

// CardData is what a caller supplies to create a card
type CardData struct {
	SelectedWord    string
	Translation     string
	TrimmedSentence string
	FullSentence    string
	Context         string
	Locator         string
	SourceURL       string
}

// SentenceForCard prefers the trimmed sentence over the full one
func (d CardData) SentenceForCard() string {
	if d.TrimmedSentence != "" {
		return d.TrimmedSentence
	}
	return d.FullSentence
}

// Field is one named note field, kept in model order
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Card represents a stored flashcard
type Card struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Deck        string    `json:"deck"`
	Type        CardType  `json:"type"`
	ModelName   string    `json:"modelName"`
	Target      string    `json:"target"`
	Translation string    `json:"translation"`
	Sentence    string    `json:"sentence"`
	Context     string    `json:"context,omitempty"`
	Locator     string    `json:"locator,omitempty"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Fields returns the note fields in the order of the card's model
func (c Card) Fields() []Field {
	if c.Type == CardVocab {
		return []Field{
			{Name: "Target", Value: c.Target},
			{Name: "Translation", Value: c.Translation},
			{Name: "Sentence", Value: c.Sentence},
		}
	}
	return []Field{
		{Name: "Sentence", Value: c.Sentence},
		{Name: "Target", Value: c.Target},
		{Name: "Translation", Value: c.Translation},
	}
}

// DeckStat is a per-deck card count
type DeckStat struct {
	Deck  string
	Cards int
}
