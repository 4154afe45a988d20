package domain

import (
	"time"
)

// Match results as stored and served. The CJK play-order labels come from the
// game client and are kept verbatim so stored data and the web UI agree.
const (
	ResultWin  = "W"
	ResultLoss = "L"

	PlayOrderFirst  = "先攻"
	PlayOrderSecond = "後攻"

	// UnknownDeck buckets matches whose deck name was never recorded.
	UnknownDeck = "未知"

	ModeRanked = "Ranked"
	ModeRating = "Rating"
	ModeDC     = "DC"

	// DefaultRank is shown for modes that have no ladder rank.
	DefaultRank = "—"

	// DefaultTheme is the neutral display theme for auto-created templates.
	DefaultTheme = "無"
)

// Deck is a recorded deck: a primary archetype and an optional secondary one.
// Only Main feeds aggregation.
type Deck struct {
	ID   string  `json:"id,omitempty"`
	Main string  `json:"main"`
	Sub  *string `json:"sub"`
}

type Match struct {
	ID         string    `json:"id"`
	SeasonCode string    `json:"seasonCode"`
	Date       string    `json:"date"` // YYYY-MM-DD, or an ISO timestamp from older imports
	Mode       string    `json:"mode"`
	Rank       string    `json:"rank"`
	MyDeck     Deck      `json:"myDeck"`
	OppDeck    Deck      `json:"oppDeck"`
	PlayOrder  string    `json:"playOrder"`
	Result     string    `json:"result"`
	Note       *string   `json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Season struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// DeckTemplate names a known archetype and the theme used to color it in the
// UI. Templates are display bookkeeping; aggregation never reads them.
type DeckTemplate struct {
	ID        string    `json:"id"`
	Main      string    `json:"name"`
	Theme     string    `json:"theme"`
	DeckType  string    `json:"deckType"` // "main" or "sub"
	CreatedAt time.Time `json:"createdAt"`
}
