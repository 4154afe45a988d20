package service

import (
	"context"
	"testing"

	"duel-tracker/internal/domain"
	"duel-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMatchSource struct {
	mock.Mock
}

func (m *mockMatchSource) List(ctx context.Context, f repository.MatchFilter) ([]domain.Match, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func newStatsService(source MatchSource) *StatsService {
	return &StatsService{matches: source, logger: zerolog.Nop()}
}

func TestSeasonStatsInvalidCode(t *testing.T) {
	svc := newStatsService(&mockMatchSource{})

	_, err := svc.SeasonStats(context.Background(), "bogus", StatsFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidSeasonCode)
}

func TestSeasonStatsUsesSeasonBounds(t *testing.T) {
	source := &mockMatchSource{}
	source.On("List", mock.Anything, repository.MatchFilter{SeasonCode: "S32"}).Return([]domain.Match{
		{
			Date:      "2024-08-15",
			MyDeck:    domain.Deck{Main: "Branded"},
			OppDeck:   domain.Deck{Main: "Snake-Eye"},
			PlayOrder: domain.PlayOrderFirst,
			Result:    domain.ResultWin,
		},
	}, nil)

	svc := newStatsService(source)

	result, err := svc.SeasonStats(context.Background(), "s32", StatsFilter{})
	require.NoError(t, err)

	assert.Equal(t, "S32", result.Season.Code)
	assert.Equal(t, 1, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.Wins)

	// August has 31 days; the ranged series covers all of them.
	require.Len(t, result.Stats.Daily, 31)
	assert.Equal(t, "2024-08-01", result.Stats.Daily[0].Date)
	assert.Equal(t, "2024-08-31", result.Stats.Daily[30].Date)
	assert.Equal(t, 1, result.Stats.Daily[14].Games)
	assert.Nil(t, result.Stats.Daily[0].WinRate)

	source.AssertExpectations(t)
}

func TestSeasonStatsPassesFilterThrough(t *testing.T) {
	source := &mockMatchSource{}
	source.On("List", mock.Anything, repository.MatchFilter{
		SeasonCode: "S32",
		Mode:       domain.ModeRanked,
		MyDeckMain: "Branded",
	}).Return([]domain.Match{}, nil)

	svc := newStatsService(source)

	_, err := svc.SeasonStats(context.Background(), "S32", StatsFilter{
		Mode:       domain.ModeRanked,
		MyDeckMain: "Branded",
	})
	require.NoError(t, err)
	source.AssertExpectations(t)
}

func TestHistoryStatsUnranged(t *testing.T) {
	source := &mockMatchSource{}
	source.On("List", mock.Anything, repository.MatchFilter{}).Return([]domain.Match{
		{Date: "2024-08-15", PlayOrder: domain.PlayOrderFirst, Result: domain.ResultWin},
		{Date: "2025-01-02", PlayOrder: domain.PlayOrderSecond, Result: domain.ResultLoss},
	}, nil)

	svc := newStatsService(source)

	result, err := svc.HistoryStats(context.Background(), StatsFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	// Sparse series: only played days, months apart.
	require.Len(t, result.Daily, 2)
	assert.Equal(t, "2024-08-15", result.Daily[0].Date)
	assert.Equal(t, "2025-01-02", result.Daily[1].Date)
}

func TestOverview(t *testing.T) {
	source := &mockMatchSource{}
	source.On("List", mock.Anything, repository.MatchFilter{SeasonCode: "S40"}).Return([]domain.Match{
		{Date: "2025-04-01", PlayOrder: domain.PlayOrderFirst, Result: domain.ResultWin},
		{Date: "2025-04-02", PlayOrder: domain.PlayOrderSecond, Result: domain.ResultLoss},
	}, nil)
	source.On("List", mock.Anything, repository.MatchFilter{SeasonCode: "S39"}).Return([]domain.Match{}, nil)
	source.On("List", mock.Anything, repository.MatchFilter{SeasonCode: "S38"}).Return([]domain.Match{
		{Date: "2025-02-10", PlayOrder: domain.PlayOrderFirst, Result: domain.ResultWin},
	}, nil)

	svc := newStatsService(source)

	summaries, err := svc.Overview(context.Background(), 3, "S40")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "S40", summaries[0].Season.Code)
	assert.Equal(t, 2, summaries[0].Total)
	assert.InDelta(t, 50.0, summaries[0].WinRate, 1e-9)

	assert.Equal(t, "S39", summaries[1].Season.Code)
	assert.Zero(t, summaries[1].Total)
	assert.Zero(t, summaries[1].WinRate)

	assert.Equal(t, "S38", summaries[2].Season.Code)
	assert.Equal(t, 1, summaries[2].Total)

	source.AssertExpectations(t)
}

func TestOverviewInvalidFrom(t *testing.T) {
	svc := newStatsService(&mockMatchSource{})

	_, err := svc.Overview(context.Background(), 3, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidSeasonCode)
}
