package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"duel-tracker/internal/domain"
	"duel-tracker/internal/season"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(db *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: db, logger: logger}
}

// MatchFilter narrows List. Empty fields are ignored.
type MatchFilter struct {
	SeasonCode  string
	Mode        string
	MyDeckMain  string
	OppDeckMain string
	Result      string
	PlayOrder   string
	DateFrom    string
	DateTo      string
}

const matchSelect = `
	SELECT
		m.id,
		m.date,
		m.mode,
		m.rank,
		m.play_order,
		m.result,
		m.note,
		m.created_at,
		m.updated_at,
		s.code AS season_code,
		my_deck.id AS my_deck_id,
		my_deck.main AS my_deck_main,
		my_deck.sub AS my_deck_sub,
		opp_deck.id AS opp_deck_id,
		opp_deck.main AS opp_deck_main,
		opp_deck.sub AS opp_deck_sub
	FROM matches m
	JOIN seasons s ON m.season_id = s.id
	JOIN decks my_deck ON m.my_deck_id = my_deck.id
	JOIN decks opp_deck ON m.opp_deck_id = opp_deck.id
	WHERE 1=1
`

// List returns matches matching the filter, newest first.
func (r *MatchRepository) List(ctx context.Context, f MatchFilter) ([]domain.Match, error) {
	query := matchSelect
	var args []any

	clauses := []struct {
		cond  string
		value string
	}{
		{"s.code = ?", f.SeasonCode},
		{"m.mode = ?", f.Mode},
		{"my_deck.main = ?", f.MyDeckMain},
		{"opp_deck.main = ?", f.OppDeckMain},
		{"m.result = ?", f.Result},
		{"m.play_order = ?", f.PlayOrder},
		{"m.date >= ?", f.DateFrom},
		{"m.date <= ?", f.DateTo},
	}
	for _, c := range clauses {
		if c.value != "" {
			query += " AND " + c.cond
			args = append(args, c.value)
		}
	}

	query += " ORDER BY m.date DESC, m.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := []domain.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// GetByID returns a single match or domain.ErrNotFound.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, matchSelect+" AND m.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	m, err := scanMatch(rows)
	if err != nil {
		return nil, fmt.Errorf("scan match: %w", err)
	}
	return &m, nil
}

func scanMatch(rows *sql.Rows) (domain.Match, error) {
	var m domain.Match
	var note, myDeckSub, oppDeckSub sql.NullString

	err := rows.Scan(
		&m.ID,
		&m.Date,
		&m.Mode,
		&m.Rank,
		&m.PlayOrder,
		&m.Result,
		&note,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.SeasonCode,
		&m.MyDeck.ID,
		&m.MyDeck.Main,
		&myDeckSub,
		&m.OppDeck.ID,
		&m.OppDeck.Main,
		&oppDeckSub,
	)
	if err != nil {
		return domain.Match{}, err
	}

	if note.Valid {
		m.Note = &note.String
	}
	if myDeckSub.Valid {
		m.MyDeck.Sub = &myDeckSub.String
	}
	if oppDeckSub.Valid {
		m.OppDeck.Sub = &oppDeckSub.String
	}
	return m, nil
}

// Create inserts a new match, resolving its season and both decks by
// find-or-create. The ID and timestamps are filled in on m.
func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	seasonID, err := r.getOrCreateSeason(ctx, m.SeasonCode)
	if err != nil {
		return fmt.Errorf("resolve season %s: %w", m.SeasonCode, err)
	}

	myDeckID, err := r.findOrCreateDeck(ctx, m.MyDeck.Main, m.MyDeck.Sub)
	if err != nil {
		return fmt.Errorf("resolve my deck: %w", err)
	}
	oppDeckID, err := r.findOrCreateDeck(ctx, m.OppDeck.Main, m.OppDeck.Sub)
	if err != nil {
		return fmt.Errorf("resolve opponent deck: %w", err)
	}

	m.ID = uuid.New().String()
	m.MyDeck.ID = myDeckID
	m.OppDeck.ID = oppDeckID
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO matches (
			id, season_id, date, mode, rank,
			my_deck_id, opp_deck_id, play_order, result, note,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, seasonID, m.Date, m.Mode, m.Rank,
		myDeckID, oppDeckID, m.PlayOrder, m.Result, m.Note,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// UpdateMatchParams carries a partial update; nil fields are left untouched.
type UpdateMatchParams struct {
	Date      *string
	Mode      *string
	Rank      *string
	PlayOrder *string
	Result    *string
	Note      *string
	MyDeck    *domain.Deck
	OppDeck   *domain.Deck
}

// Update applies a partial update. Returns domain.ErrNotFound when the match
// does not exist and domain.ErrValidation when nothing would change.
func (r *MatchRepository) Update(ctx context.Context, id string, p UpdateMatchParams) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM matches WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check match: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	var sets []string
	var args []any

	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *p.Date)
	}
	if p.Mode != nil {
		sets = append(sets, "mode = ?")
		args = append(args, *p.Mode)
		// Leaving Ranked without an explicit rank: reset to the placeholder
		// so the NOT NULL column stays meaningful.
		if *p.Mode != domain.ModeRanked && p.Rank == nil {
			sets = append(sets, "rank = ?")
			args = append(args, domain.DefaultRank)
		}
	}
	if p.Rank != nil {
		sets = append(sets, "rank = ?")
		args = append(args, *p.Rank)
	}
	if p.PlayOrder != nil {
		sets = append(sets, "play_order = ?")
		args = append(args, *p.PlayOrder)
	}
	if p.Result != nil {
		sets = append(sets, "result = ?")
		args = append(args, *p.Result)
	}
	if p.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *p.Note)
	}
	if p.MyDeck != nil {
		deckID, err := r.findOrCreateDeck(ctx, p.MyDeck.Main, p.MyDeck.Sub)
		if err != nil {
			return fmt.Errorf("resolve my deck: %w", err)
		}
		sets = append(sets, "my_deck_id = ?")
		args = append(args, deckID)
	}
	if p.OppDeck != nil {
		deckID, err := r.findOrCreateDeck(ctx, p.OppDeck.Main, p.OppDeck.Sub)
		if err != nil {
			return fmt.Errorf("resolve opponent deck: %w", err)
		}
		sets = append(sets, "opp_deck_id = ?")
		args = append(args, deckID)
	}

	if len(sets) == 0 {
		return fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE matches SET %s WHERE id = ?", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	return nil
}

// Delete removes a match; domain.ErrNotFound when no row was deleted.
func (r *MatchRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// findOrCreateDeck resolves a (main, sub) pair to a deck row, creating it on
// first sight. Sub is matched exactly, including NULL.
func (r *MatchRepository) findOrCreateDeck(ctx context.Context, main string, sub *string) (string, error) {
	var deckID string
	var err error
	if sub == nil {
		err = r.db.QueryRowContext(ctx,
			"SELECT id FROM decks WHERE main = ? AND sub IS NULL", main).Scan(&deckID)
	} else {
		err = r.db.QueryRowContext(ctx,
			"SELECT id FROM decks WHERE main = ? AND sub = ?", main, *sub).Scan(&deckID)
	}
	if err == nil {
		return deckID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	deckID = uuid.New().String()
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO decks (id, main, sub) VALUES (?, ?, ?)", deckID, main, sub); err != nil {
		return "", err
	}

	r.logger.Debug().Str("deck_id", deckID).Str("main", main).Msg("deck created")
	return deckID, nil
}

// getOrCreateSeason resolves a season code, creating the row on first use so
// a user can start recording without any setup. Calendar bounds are filled
// whenever the code parses.
func (r *MatchRepository) getOrCreateSeason(ctx context.Context, code string) (string, error) {
	var seasonID string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM seasons WHERE code = ?", code).Scan(&seasonID)
	if err == nil {
		return seasonID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	seasonID = uuid.New().String()

	var startDate, endDate any
	if info := season.Lookup(code); info != nil {
		startDate = info.Start
		endDate = info.End
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO seasons (id, code, start_date, end_date) VALUES (?, ?, ?, ?)",
		seasonID, code, startDate, endDate,
	)
	if err != nil {
		// Lost a race with a concurrent insert: re-read.
		if readErr := r.db.QueryRowContext(ctx,
			"SELECT id FROM seasons WHERE code = ?", code).Scan(&seasonID); readErr == nil {
			return seasonID, nil
		}
		return "", err
	}

	r.logger.Info().Str("season_id", seasonID).Str("code", code).Msg("season created")
	return seasonID, nil
}
