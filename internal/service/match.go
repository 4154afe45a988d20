package service

import (
	"context"
	"fmt"

	"duel-tracker/internal/constants"
	"duel-tracker/internal/domain"
	"duel-tracker/internal/repository"
	"duel-tracker/internal/season"

	"github.com/rs/zerolog"
)

type MatchService struct {
	repo      *repository.MatchRepository
	templates *repository.DeckTemplateRepository
	logger    zerolog.Logger
}

func NewMatchService(repo *repository.MatchRepository, templates *repository.DeckTemplateRepository, logger zerolog.Logger) *MatchService {
	return &MatchService{repo: repo, templates: templates, logger: logger}
}

// CreateMatchInput is the payload for a new match. SeasonCode, Mode and Rank
// may be empty; they are defaulted here.
type CreateMatchInput struct {
	SeasonCode string      `json:"seasonCode"`
	Date       string      `json:"date"`
	Mode       string      `json:"mode"`
	Rank       string      `json:"rank"`
	MyDeck     domain.Deck `json:"myDeck"`
	OppDeck    domain.Deck `json:"oppDeck"`
	PlayOrder  string      `json:"playOrder"`
	Result     string      `json:"result"`
	Note       *string     `json:"note"`
}

func (s *MatchService) List(ctx context.Context, f repository.MatchFilter) ([]domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()
	return s.repo.List(ctx, f)
}

func (s *MatchService) Get(ctx context.Context, id string) (*domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()
	return s.repo.GetByID(ctx, id)
}

func (s *MatchService) Create(ctx context.Context, in CreateMatchInput) (*domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if in.Date == "" {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if in.Result != domain.ResultWin && in.Result != domain.ResultLoss {
		return nil, fmt.Errorf("%w: result must be %s or %s", domain.ErrValidation, domain.ResultWin, domain.ResultLoss)
	}
	if in.PlayOrder != domain.PlayOrderFirst && in.PlayOrder != domain.PlayOrderSecond {
		return nil, fmt.Errorf("%w: play order must be %s or %s", domain.ErrValidation, domain.PlayOrderFirst, domain.PlayOrderSecond)
	}

	if in.Mode == "" {
		in.Mode = domain.ModeRanked
	}
	if in.Mode != domain.ModeRanked && in.Rank == "" {
		in.Rank = domain.DefaultRank
	}
	if in.SeasonCode == "" {
		in.SeasonCode = season.CodeFromDate(in.Date)
		if in.SeasonCode == "" {
			return nil, fmt.Errorf("%w: cannot derive season from date %q", domain.ErrValidation, in.Date)
		}
	}

	m := &domain.Match{
		SeasonCode: in.SeasonCode,
		Date:       in.Date,
		Mode:       in.Mode,
		Rank:       in.Rank,
		MyDeck:     in.MyDeck,
		OppDeck:    in.OppDeck,
		PlayOrder:  in.PlayOrder,
		Result:     in.Result,
		Note:       in.Note,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.ensureTemplates(ctx, in.MyDeck, in.OppDeck)

	s.logger.Info().
		Str("match_id", m.ID).
		Str("season", m.SeasonCode).
		Str("result", m.Result).
		Msg("match created")
	return m, nil
}

func (s *MatchService) Update(ctx context.Context, id string, p repository.UpdateMatchParams) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if p.Result != nil && *p.Result != domain.ResultWin && *p.Result != domain.ResultLoss {
		return fmt.Errorf("%w: result must be %s or %s", domain.ErrValidation, domain.ResultWin, domain.ResultLoss)
	}
	if p.PlayOrder != nil && *p.PlayOrder != domain.PlayOrderFirst && *p.PlayOrder != domain.PlayOrderSecond {
		return fmt.Errorf("%w: play order must be %s or %s", domain.ErrValidation, domain.PlayOrderFirst, domain.PlayOrderSecond)
	}

	if err := s.repo.Update(ctx, id, p); err != nil {
		return err
	}

	var myDeck, oppDeck domain.Deck
	if p.MyDeck != nil {
		myDeck = *p.MyDeck
	}
	if p.OppDeck != nil {
		oppDeck = *p.OppDeck
	}
	s.ensureTemplates(ctx, myDeck, oppDeck)

	s.logger.Info().Str("match_id", id).Msg("match updated")
	return nil
}

func (s *MatchService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("match_id", id).Msg("match deleted")
	return nil
}

// ensureTemplates keeps a display template for every deck name seen in a
// match, so the UI can color them. Best effort; failures only log.
func (s *MatchService) ensureTemplates(ctx context.Context, decks ...domain.Deck) {
	for _, d := range decks {
		names := []string{d.Main}
		if d.Sub != nil && *d.Sub != "" && *d.Sub != domain.DefaultTheme {
			names = append(names, *d.Sub)
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			if err := s.templates.Ensure(ctx, name); err != nil {
				s.logger.Warn().Err(err).Str("main", name).Msg("failed to ensure deck template")
			}
		}
	}
}
