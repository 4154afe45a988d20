package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"duel-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const templateIDSize = 12

type DeckTemplateRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewDeckTemplateRepository(db *sql.DB, logger zerolog.Logger) *DeckTemplateRepository {
	return &DeckTemplateRepository{db: db, logger: logger}
}

func (r *DeckTemplateRepository) List(ctx context.Context) ([]domain.DeckTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, main, theme, deck_type, created_at
		FROM deck_templates
		ORDER BY created_at, main
	`)
	if err != nil {
		return nil, fmt.Errorf("list deck templates: %w", err)
	}
	defer rows.Close()

	templates := []domain.DeckTemplate{}
	for rows.Next() {
		var t domain.DeckTemplate
		if err := rows.Scan(&t.ID, &t.Main, &t.Theme, &t.DeckType, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deck template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *DeckTemplateRepository) Create(ctx context.Context, main, theme, deckType string) (*domain.DeckTemplate, error) {
	nid, err := gonanoid.New(templateIDSize)
	if err != nil {
		return nil, fmt.Errorf("generate template id: %w", err)
	}

	t := &domain.DeckTemplate{
		ID:        "tpl-" + nid,
		Main:      main,
		Theme:     theme,
		DeckType:  deckType,
		CreatedAt: time.Now(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO deck_templates (id, main, theme, deck_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.Main, t.Theme, t.DeckType, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert deck template: %w", err)
	}
	return t, nil
}

// UpdateTemplateParams carries a partial template update.
type UpdateTemplateParams struct {
	Main  *string
	Theme *string
}

func (r *DeckTemplateRepository) Update(ctx context.Context, id string, p UpdateTemplateParams) error {
	var sets []string
	var args []any

	if p.Main != nil {
		sets = append(sets, "main = ?")
		args = append(args, *p.Main)
	}
	if p.Theme != nil {
		sets = append(sets, "theme = ?")
		args = append(args, *p.Theme)
	}
	if len(sets) == 0 {
		return fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE deck_templates SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update deck template: %w", err)
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

func (r *DeckTemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM deck_templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete deck template: %w", err)
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

// Ensure creates a main-deck template with the neutral theme the first time a
// deck name shows up in a match, so every deck has a display color.
func (r *DeckTemplateRepository) Ensure(ctx context.Context, main string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM deck_templates WHERE main = ? AND deck_type = 'main')
	`, main).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check deck template: %w", err)
	}
	if exists {
		return nil
	}

	_, err = r.Create(ctx, main, domain.DefaultTheme, "main")
	if err != nil {
		// A concurrent Ensure for the same name is fine.
		var alreadyThere bool
		if checkErr := r.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM deck_templates WHERE main = ? AND deck_type = 'main')
		`, main).Scan(&alreadyThere); checkErr == nil && alreadyThere {
			return nil
		}
		return err
	}

	r.logger.Debug().Str("main", main).Msg("deck template auto-created")
	return nil
}
