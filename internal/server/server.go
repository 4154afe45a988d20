package server

import (
	"errors"
	"strconv"

	"duel-tracker/internal/domain"
	"duel-tracker/internal/repository"
	"duel-tracker/internal/season"
	"duel-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Server holds the REST handlers for matches, deck templates, the season
// calendar, and statistics.
type Server struct {
	matchSvc *service.MatchService
	statsSvc *service.StatsService
	decks    *repository.DeckTemplateRepository
	logger   zerolog.Logger
}

func New(matchSvc *service.MatchService, statsSvc *service.StatsService, decks *repository.DeckTemplateRepository, logger zerolog.Logger) *Server {
	return &Server{matchSvc: matchSvc, statsSvc: statsSvc, decks: decks, logger: logger}
}

func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Get("/health", s.health)

	app.Get("/matches", s.listMatches)
	app.Get("/matches/:id", s.getMatch)
	app.Post("/matches", s.createMatch)
	app.Patch("/matches/:id", s.updateMatch)
	app.Delete("/matches/:id", s.deleteMatch)

	app.Get("/deck-templates", s.listDeckTemplates)
	app.Post("/deck-templates", s.createDeckTemplate)
	app.Patch("/deck-templates/:id", s.updateDeckTemplate)
	app.Delete("/deck-templates/:id", s.deleteDeckTemplate)

	app.Get("/seasons/current", s.currentSeason)
	app.Get("/seasons/recent", s.recentSeasons)

	app.Get("/stats/season/:code", s.seasonStats)
	app.Get("/stats/history", s.historyStats)
	app.Get("/stats/overview", s.statsOverview)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "message": "duel-tracker API is running"})
}

// fail maps domain errors to HTTP statuses.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidSeasonCode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error", "details": err.Error()})
	}
}

func (s *Server) listMatches(c *fiber.Ctx) error {
	f := repository.MatchFilter{
		SeasonCode:  c.Query("seasonCode"),
		Mode:        c.Query("mode"),
		MyDeckMain:  c.Query("myDeckMain"),
		OppDeckMain: c.Query("oppDeckMain"),
		Result:      c.Query("result"),
		PlayOrder:   c.Query("playOrder"),
		DateFrom:    c.Query("dateFrom"),
		DateTo:      c.Query("dateTo"),
	}

	matches, err := s.matchSvc.List(c.Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"matches": matches, "total": len(matches)})
}

func (s *Server) getMatch(c *fiber.Ctx) error {
	m, err := s.matchSvc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(m)
}

func (s *Server) createMatch(c *fiber.Ctx) error {
	var in service.CreateMatchInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body", "details": err.Error()})
	}

	m, err := s.matchSvc.Create(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": m.ID, "match": m})
}

// updateMatchRequest uses pointers so absent fields stay untouched.
type updateMatchRequest struct {
	Date      *string      `json:"date"`
	Mode      *string      `json:"mode"`
	Rank      *string      `json:"rank"`
	PlayOrder *string      `json:"playOrder"`
	Result    *string      `json:"result"`
	Note      *string      `json:"note"`
	MyDeck    *domain.Deck `json:"myDeck"`
	OppDeck   *domain.Deck `json:"oppDeck"`
}

func (s *Server) updateMatch(c *fiber.Ctx) error {
	id := c.Params("id")

	var req updateMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body", "details": err.Error()})
	}

	err := s.matchSvc.Update(c.Context(), id, repository.UpdateMatchParams{
		Date:      req.Date,
		Mode:      req.Mode,
		Rank:      req.Rank,
		PlayOrder: req.PlayOrder,
		Result:    req.Result,
		Note:      req.Note,
		MyDeck:    req.MyDeck,
		OppDeck:   req.OppDeck,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "message": "match updated"})
}

func (s *Server) deleteMatch(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.matchSvc.Delete(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "message": "match deleted"})
}

func (s *Server) listDeckTemplates(c *fiber.Ctx) error {
	templates, err := s.decks.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"deckTemplates": templates, "total": len(templates)})
}

type createDeckTemplateRequest struct {
	Name     string `json:"name"`
	Theme    string `json:"theme"`
	DeckType string `json:"deckType"`
}

func (s *Server) createDeckTemplate(c *fiber.Ctx) error {
	var req createDeckTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if req.Theme == "" {
		req.Theme = domain.DefaultTheme
	}
	if req.DeckType == "" {
		req.DeckType = "main"
	}
	if req.DeckType != "main" && req.DeckType != "sub" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "deckType must be main or sub"})
	}

	t, err := s.decks.Create(c.Context(), req.Name, req.Theme, req.DeckType)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

type updateDeckTemplateRequest struct {
	Name  *string `json:"name"`
	Theme *string `json:"theme"`
}

func (s *Server) updateDeckTemplate(c *fiber.Ctx) error {
	id := c.Params("id")

	var req updateDeckTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body", "details": err.Error()})
	}

	err := s.decks.Update(c.Context(), id, repository.UpdateTemplateParams{Main: req.Name, Theme: req.Theme})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "message": "deck template updated"})
}

func (s *Server) deleteDeckTemplate(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.decks.Delete(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "message": "deck template deleted"})
}

func (s *Server) currentSeason(c *fiber.Ctx) error {
	info := season.Lookup(season.CurrentCode())
	return c.JSON(info)
}

func (s *Server) recentSeasons(c *fiber.Ctx) error {
	count, err := strconv.Atoi(c.Query("count", "6"))
	if err != nil || count <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "count must be a positive integer"})
	}

	codes := season.RecentCodes(count, c.Query("from"))
	if len(codes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid season code"})
	}

	infos := make([]*season.Info, 0, len(codes))
	for _, code := range codes {
		// Codes below season 0 have no backing month; leave them out.
		if info := season.Lookup(code); info != nil {
			infos = append(infos, info)
		}
	}
	return c.JSON(fiber.Map{"seasons": infos})
}

func (s *Server) seasonStats(c *fiber.Ctx) error {
	result, err := s.statsSvc.SeasonStats(c.Context(), c.Params("code"), statsFilterFromQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

func (s *Server) historyStats(c *fiber.Ctx) error {
	result, err := s.statsSvc.HistoryStats(c.Context(), statsFilterFromQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

func (s *Server) statsOverview(c *fiber.Ctx) error {
	count, _ := strconv.Atoi(c.Query("count", "0"))

	summaries, err := s.statsSvc.Overview(c.Context(), count, c.Query("from"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"seasons": summaries})
}

func statsFilterFromQuery(c *fiber.Ctx) service.StatsFilter {
	return service.StatsFilter{
		Mode:        c.Query("mode"),
		MyDeckMain:  c.Query("myDeckMain"),
		OppDeckMain: c.Query("oppDeckMain"),
		DateFrom:    c.Query("dateFrom"),
		DateTo:      c.Query("dateTo"),
	}
}
