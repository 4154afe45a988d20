package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"duel-tracker/internal/database"
	"duel-tracker/internal/repository"
	"duel-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db, zerolog.Nop()))

	nop := zerolog.Nop()
	matchRepo := repository.NewMatchRepository(db, nop)
	deckRepo := repository.NewDeckTemplateRepository(db, nop)
	matchSvc := service.NewMatchService(matchRepo, deckRepo, nop)
	statsSvc := service.NewStatsService(matchRepo, nop)

	app := fiber.New()
	New(matchSvc, statsSvc, deckRepo, nop).RegisterRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func postMatch(t *testing.T, app *fiber.App, date, myDeck, oppDeck, playOrder, result string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/matches", fiber.Map{
		"date":      date,
		"rank":      "Master 3",
		"myDeck":    fiber.Map{"main": myDeck},
		"oppDeck":   fiber.Map{"main": oppDeck},
		"playOrder": playOrder,
		"result":    result,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestMatchLifecycle(t *testing.T) {
	app := newTestApp(t)

	id := postMatch(t, app, "2024-08-15", "Branded", "Snake-Eye", "先攻", "W")

	resp, body := doJSON(t, app, http.MethodGet, "/matches", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])

	matches := body["matches"].([]any)
	first := matches[0].(map[string]any)
	assert.Equal(t, id, first["id"])
	// Season derived from the match date.
	assert.Equal(t, "S32", first["seasonCode"])

	resp, single := doJSON(t, app, http.MethodGet, "/matches/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Branded", single["myDeck"].(map[string]any)["main"])

	resp, _ = doJSON(t, app, http.MethodGet, "/matches/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPatch, "/matches/"+id, fiber.Map{"result": "L"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/matches?result=L", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/matches/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/matches/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateMatchValidation(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/matches", fiber.Map{
		"date": "2024-08-15", "playOrder": "先攻", "result": "draw",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/matches", fiber.Map{
		"playOrder": "先攻", "result": "W",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateMatchEnsuresDeckTemplates(t *testing.T) {
	app := newTestApp(t)

	postMatch(t, app, "2024-08-15", "Branded", "Snake-Eye", "先攻", "W")

	resp, body := doJSON(t, app, http.MethodGet, "/deck-templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total"])
}

func TestSeasonStatsEndpoint(t *testing.T) {
	app := newTestApp(t)

	postMatch(t, app, "2024-08-03", "Branded", "Snake-Eye", "先攻", "W")
	postMatch(t, app, "2024-08-05", "Branded", "Labrynth", "後攻", "L")

	resp, body := doJSON(t, app, http.MethodGet, "/stats/season/S32", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seasonInfo := body["season"].(map[string]any)
	assert.Equal(t, "S32", seasonInfo["code"])

	statsBody := body["stats"].(map[string]any)
	assert.EqualValues(t, 2, statsBody["total"])
	assert.EqualValues(t, 1, statsBody["wins"])
	assert.InDelta(t, 50.0, statsBody["winRate"].(float64), 1e-9)

	daily := statsBody["daily"].([]any)
	require.Len(t, daily, 31)

	day1 := daily[0].(map[string]any)
	assert.Equal(t, "2024-08-01", day1["date"])
	assert.Nil(t, day1["winRate"])

	day3 := daily[2].(map[string]any)
	assert.EqualValues(t, 1, day3["games"])
	assert.InDelta(t, 100.0, day3["winRate"].(float64), 1e-9)
}

func TestSeasonStatsInvalidCode(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/stats/season/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryStatsEndpoint(t *testing.T) {
	app := newTestApp(t)

	postMatch(t, app, "2024-08-03", "Branded", "Snake-Eye", "先攻", "W")
	postMatch(t, app, "2025-01-05", "Branded", "Snake-Eye", "後攻", "L")

	resp, body := doJSON(t, app, http.MethodGet, "/stats/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total"])

	// No range: only played days appear.
	daily := body["daily"].([]any)
	require.Len(t, daily, 2)
}

func TestRecentSeasonsEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/seasons/recent?count=3&from=S40", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seasons := body["seasons"].([]any)
	require.Len(t, seasons, 3)
	assert.Equal(t, "S40", seasons[0].(map[string]any)["code"])
	assert.Equal(t, "S38", seasons[2].(map[string]any)["code"])

	resp, _ = doJSON(t, app, http.MethodGet, "/seasons/recent?from=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeckTemplateEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, created := doJSON(t, app, http.MethodPost, "/deck-templates", fiber.Map{
		"name": "Branded", "theme": "融合",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)

	resp, _ = doJSON(t, app, http.MethodPatch, "/deck-templates/"+id, fiber.Map{"theme": "儀式"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/deck-templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	templates := body["deckTemplates"].([]any)
	require.Len(t, templates, 1)
	assert.Equal(t, "儀式", templates[0].(map[string]any)["theme"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/deck-templates/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/deck-templates/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
