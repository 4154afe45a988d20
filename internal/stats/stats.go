// Package stats turns a flat list of matches into the season statistics the
// UI renders: overall and play-order win rates, ranked per-deck breakdowns,
// and a per-day time series.
package stats

import (
	"sort"
	"time"

	"duel-tracker/internal/domain"
	"duel-tracker/internal/season"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive calendar range, both ends YYYY-MM-DD.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DeckStatRow is one deck's record, ranked by games played.
type DeckStatRow struct {
	Name    string  `json:"name"`
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"` // 0-100
}

// DailyStatRow is one calendar day. The rate fields are nil when their
// denominator is zero: a day with no matches reads "no data", not "0%".
type DailyStatRow struct {
	Date          string   `json:"date"`
	Games         int      `json:"games"`
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	First         int      `json:"first"`
	Second        int      `json:"second"`
	FirstWins     int      `json:"firstWins"`
	FirstLosses   int      `json:"firstLosses"`
	SecondWins    int      `json:"secondWins"`
	SecondLosses  int      `json:"secondLosses"`
	FirstRate     *float64 `json:"firstRate"`
	WinRate       *float64 `json:"winRate"`
	FirstWinRate  *float64 `json:"firstWinRate"`
	SecondWinRate *float64 `json:"secondWinRate"`
}

type SeasonStats struct {
	Total         int            `json:"total"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	WinRate       float64        `json:"winRate"`
	FirstCount    int            `json:"firstCount"`
	SecondCount   int            `json:"secondCount"`
	FirstWins     int            `json:"firstWins"`
	SecondWins    int            `json:"secondWins"`
	FirstRate     float64        `json:"firstRate"`
	FirstWinRate  float64        `json:"firstWinRate"`
	SecondWinRate float64        `json:"secondWinRate"`
	OppDecks      []DeckStatRow  `json:"oppDecks"`
	MyDecks       []DeckStatRow  `json:"myDecks"`
	Daily         []DailyStatRow `json:"daily"`
}

func clamp01(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// rate is the percentage used for the aggregate fields: 0 when the
// denominator is zero.
func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// rateOrNil is the per-day variant: nil marks a missing denominator.
func rateOrNil(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	r := float64(num) / float64(den) * 100
	return &r
}

type record struct {
	wins   int
	losses int
}

// aggregateDecks groups matches by the deck name selected by key, counts
// wins and losses per name, and returns rows ranked by games played. An
// empty name falls back to the unknown-deck bucket. Ties keep first-seen
// order.
func aggregateDecks(matches []domain.Match, key func(domain.Match) string) []DeckStatRow {
	counts := make(map[string]*record)
	var order []string

	for _, m := range matches {
		name := key(m)
		if name == "" {
			name = domain.UnknownDeck
		}
		rec, ok := counts[name]
		if !ok {
			rec = &record{}
			counts[name] = rec
			order = append(order, name)
		}
		if m.Result == domain.ResultWin {
			rec.wins++
		} else {
			rec.losses++
		}
	}

	rows := make([]DeckStatRow, 0, len(order))
	for _, name := range order {
		rec := counts[name]
		games := rec.wins + rec.losses
		winRate := 0.0
		if games > 0 {
			winRate = clamp01(float64(rec.wins)/float64(games)) * 100
		}
		rows = append(rows, DeckStatRow{
			Name:    name,
			Games:   games,
			Wins:    rec.wins,
			Losses:  rec.losses,
			WinRate: winRate,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Games > rows[j].Games })
	return rows
}

type dayRecord struct {
	wins, losses             int
	first, second            int
	firstWins, firstLosses   int
	secondWins, secondLosses int
}

func (d *dayRecord) row(date string) DailyStatRow {
	games := d.wins + d.losses
	return DailyStatRow{
		Date:          date,
		Games:         games,
		Wins:          d.wins,
		Losses:        d.losses,
		First:         d.first,
		Second:        d.second,
		FirstWins:     d.firstWins,
		FirstLosses:   d.firstLosses,
		SecondWins:    d.secondWins,
		SecondLosses:  d.secondLosses,
		FirstRate:     rateOrNil(d.first, games),
		WinRate:       rateOrNil(d.wins, games),
		FirstWinRate:  rateOrNil(d.firstWins, d.first),
		SecondWinRate: rateOrNil(d.secondWins, d.second),
	}
}

// BuildSeasonStats aggregates a match list into the full stats result. The
// caller is expected to have already scoped the list (one season, all
// history, a chosen deck); no filtering happens here.
//
// When rng is non-nil the daily series covers every calendar day of the
// range, inclusive and ascending, with zero rows for days without matches.
// Without a range only days that saw at least one match are emitted.
func BuildSeasonStats(matches []domain.Match, rng *DateRange) SeasonStats {
	total := len(matches)

	var wins, losses int
	var firstCount, secondCount, firstWins, secondWins int
	for _, m := range matches {
		if m.Result == domain.ResultWin {
			wins++
		} else {
			losses++
		}
		if m.PlayOrder == domain.PlayOrderFirst {
			firstCount++
			if m.Result == domain.ResultWin {
				firstWins++
			}
		} else {
			secondCount++
			if m.Result == domain.ResultWin {
				secondWins++
			}
		}
	}

	daily := buildDaily(matches, rng)

	return SeasonStats{
		Total:         total,
		Wins:          wins,
		Losses:        losses,
		WinRate:       rate(wins, total),
		FirstCount:    firstCount,
		SecondCount:   secondCount,
		FirstWins:     firstWins,
		SecondWins:    secondWins,
		FirstRate:     rate(firstCount, total),
		FirstWinRate:  rate(firstWins, firstCount),
		SecondWinRate: rate(secondWins, secondCount),
		OppDecks:      aggregateDecks(matches, func(m domain.Match) string { return m.OppDeck.Main }),
		MyDecks:       aggregateDecks(matches, func(m domain.Match) string { return m.MyDeck.Main }),
		Daily:         daily,
	}
}

func buildDaily(matches []domain.Match, rng *DateRange) []DailyStatRow {
	byDay := make(map[string]*dayRecord)
	for _, m := range matches {
		key := season.NormalizeDate(m.Date)
		rec, ok := byDay[key]
		if !ok {
			rec = &dayRecord{}
			byDay[key] = rec
		}

		win := m.Result == domain.ResultWin
		if win {
			rec.wins++
		} else {
			rec.losses++
		}
		if m.PlayOrder == domain.PlayOrderFirst {
			rec.first++
			if win {
				rec.firstWins++
			} else {
				rec.firstLosses++
			}
		} else {
			rec.second++
			if win {
				rec.secondWins++
			} else {
				rec.secondLosses++
			}
		}
	}

	if rng != nil {
		start, errStart := time.Parse(dateLayout, rng.Start)
		end, errEnd := time.Parse(dateLayout, rng.End)
		if errStart == nil && errEnd == nil {
			var rows []DailyStatRow
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				key := d.Format(dateLayout)
				rec, ok := byDay[key]
				if !ok {
					rec = &dayRecord{}
				}
				rows = append(rows, rec.row(key))
			}
			return rows
		}
		// Unparseable range: fall through to the sparse series.
	}

	days := make([]string, 0, len(byDay))
	for key := range byDay {
		days = append(days, key)
	}
	sort.Strings(days)

	rows := make([]DailyStatRow, 0, len(days))
	for _, key := range days {
		rows = append(rows, byDay[key].row(key))
	}
	return rows
}
