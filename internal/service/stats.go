package service

import (
	"context"
	"fmt"

	"duel-tracker/internal/constants"
	"duel-tracker/internal/domain"
	"duel-tracker/internal/repository"
	"duel-tracker/internal/season"
	"duel-tracker/internal/stats"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MatchSource is what the stats service needs from storage: a scoped match
// list. The aggregation itself never touches the database.
type MatchSource interface {
	List(ctx context.Context, f repository.MatchFilter) ([]domain.Match, error)
}

type StatsService struct {
	matches MatchSource
	logger  zerolog.Logger
}

func NewStatsService(matches *repository.MatchRepository, logger zerolog.Logger) *StatsService {
	return &StatsService{matches: matches, logger: logger}
}

// StatsFilter narrows which matches feed an aggregation, mirroring the
// filters the match list endpoint takes.
type StatsFilter struct {
	Mode        string
	MyDeckMain  string
	OppDeckMain string
	DateFrom    string
	DateTo      string
}

// SeasonStatsResult pairs the aggregation with the season it covers.
type SeasonStatsResult struct {
	Season season.Info       `json:"season"`
	Stats  stats.SeasonStats `json:"stats"`
}

// SeasonStats aggregates one season. The season's calendar bounds force a
// contiguous daily series. An unparseable code yields ErrInvalidSeasonCode.
func (s *StatsService) SeasonStats(ctx context.Context, code string, f StatsFilter) (*SeasonStatsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	info := season.Lookup(code)
	if info == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSeasonCode, code)
	}

	matches, err := s.matches.List(ctx, repository.MatchFilter{
		SeasonCode:  info.Code,
		Mode:        f.Mode,
		MyDeckMain:  f.MyDeckMain,
		OppDeckMain: f.OppDeckMain,
		DateFrom:    f.DateFrom,
		DateTo:      f.DateTo,
	})
	if err != nil {
		return nil, err
	}

	result := stats.BuildSeasonStats(matches, &stats.DateRange{Start: info.Start, End: info.End})

	s.logger.Debug().
		Str("season", info.Code).
		Int("matches", result.Total).
		Msg("season stats built")
	return &SeasonStatsResult{Season: *info, Stats: result}, nil
}

// HistoryStats aggregates across all recorded matches. Without a range the
// daily series only contains days that were actually played.
func (s *StatsService) HistoryStats(ctx context.Context, f StatsFilter) (*stats.SeasonStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	matches, err := s.matches.List(ctx, repository.MatchFilter{
		Mode:        f.Mode,
		MyDeckMain:  f.MyDeckMain,
		OppDeckMain: f.OppDeckMain,
		DateFrom:    f.DateFrom,
		DateTo:      f.DateTo,
	})
	if err != nil {
		return nil, err
	}

	result := stats.BuildSeasonStats(matches, nil)
	return &result, nil
}

// SeasonSummary is the per-season line of the overview.
type SeasonSummary struct {
	Season        season.Info `json:"season"`
	Total         int         `json:"total"`
	Wins          int         `json:"wins"`
	Losses        int         `json:"losses"`
	WinRate       float64     `json:"winRate"`
	FirstWinRate  float64     `json:"firstWinRate"`
	SecondWinRate float64     `json:"secondWinRate"`
}

// Overview aggregates the count most recent seasons starting at from (or the
// current season), most recent first. Seasons are fetched and aggregated
// concurrently; an unparseable from yields ErrInvalidSeasonCode.
func (s *StatsService) Overview(ctx context.Context, count int, from string) ([]SeasonSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if count <= 0 {
		count = constants.DefaultOverviewSeasons
	}
	if count > constants.MaxOverviewSeasons {
		count = constants.MaxOverviewSeasons
	}

	codes := season.RecentCodes(count, from)
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSeasonCode, from)
	}

	summaries := make([]SeasonSummary, len(codes))
	g, gCtx := errgroup.WithContext(ctx)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			info := season.Lookup(code)
			if info == nil {
				// Counting past season 0 produces codes like "S-1" that no
				// calendar month backs; report them empty.
				summaries[i] = SeasonSummary{Season: season.Info{Code: code}}
				return nil
			}
			matches, err := s.matches.List(gCtx, repository.MatchFilter{SeasonCode: code})
			if err != nil {
				return fmt.Errorf("season %s: %w", code, err)
			}
			agg := stats.BuildSeasonStats(matches, nil)
			summaries[i] = SeasonSummary{
				Season:        *info,
				Total:         agg.Total,
				Wins:          agg.Wins,
				Losses:        agg.Losses,
				WinRate:       agg.WinRate,
				FirstWinRate:  agg.FirstWinRate,
				SecondWinRate: agg.SecondWinRate,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}
