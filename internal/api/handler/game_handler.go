package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/questsupremacy/questd/internal/api/session"
	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/ports"
)

// GameHandler serves the progression endpoints. Every route sits behind
// session.Manager.RequireIdentity.
type GameHandler struct {
	profiles ports.ProfileService
	quests   ports.QuestService
}

func NewGameHandler(profiles ports.ProfileService, quests ports.QuestService) *GameHandler {
	return &GameHandler{profiles: profiles, quests: quests}
}

// PlayerStats handles GET /api/game/player-stats.
//
// @Summary      Player stats
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  playerStatsResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/game/player-stats [get]
func (h *GameHandler) PlayerStats(c echo.Context) error {
	p, err := h.profiles.GetOrCreate(c.Request().Context(), session.Username(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, playerStatsResponse{
		Stats:           p.Stats,
		Level:           p.Level,
		TotalXP:         p.TotalXP,
		NextLevelXP:     domain.XPRequiredForLevel(p.Level + 1),
		QuestsCompleted: p.QuestsCompleted,
	})
}

// DailyQuests handles GET /api/game/daily-quests.
//
// @Summary      Today's quests
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Quest
// @Failure      401  {object}  errorResponse
// @Router       /api/game/daily-quests [get]
func (h *GameHandler) DailyQuests(c echo.Context) error {
	quests, err := h.quests.DailyQuests(c.Request().Context(), session.Username(c))
	if err != nil {
		return err
	}
	if quests == nil {
		quests = []domain.Quest{}
	}
	return c.JSON(http.StatusOK, quests)
}

// CompleteQuest handles POST /api/game/complete-quest.
//
// @Summary      Complete a quest
// @Tags         game
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      completeQuestRequest  true  "Quest to complete"
// @Success      200   {object}  completeQuestResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/game/complete-quest [post]
func (h *GameHandler) CompleteQuest(c echo.Context) error {
	var req completeQuestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	receipt, err := h.quests.Complete(c.Request().Context(), session.Username(c), req.id())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, completeQuestResponse{
		Message:           "quest completed",
		CompletionReceipt: receipt,
	})
}

// Achievements handles GET /api/game/achievements.
//
// @Summary      Unlocked achievements
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Achievement
// @Failure      401  {object}  errorResponse
// @Router       /api/game/achievements [get]
func (h *GameHandler) Achievements(c echo.Context) error {
	list, err := h.profiles.Achievements(c.Request().Context(), session.Username(c))
	if err != nil {
		return err
	}
	if list == nil {
		list = []domain.Achievement{}
	}
	return c.JSON(http.StatusOK, list)
}

// Settings handles GET /api/game/settings.
//
// @Summary      Player settings
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Settings
// @Failure      401  {object}  errorResponse
// @Router       /api/game/settings [get]
func (h *GameHandler) Settings(c echo.Context) error {
	settings, err := h.profiles.Settings(c.Request().Context(), session.Username(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/game/settings.
//
// @Summary      Update player settings
// @Tags         game
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      settingsRequest  true  "Settings to change"
// @Success      200   {object}  settingsResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/game/settings [put]
func (h *GameHandler) UpdateSettings(c echo.Context) error {
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	settings, err := h.profiles.UpdateSettings(c.Request().Context(), session.Username(c), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settingsResponse{Message: "settings updated", Settings: settings})
}
