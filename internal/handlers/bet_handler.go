package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankroll-terminal/internal/auth"
	"bankroll-terminal/internal/models"
	"bankroll-terminal/internal/services"
)

type BetHandler struct {
	bets *services.BetService
	log  *zap.Logger
}

func NewBetHandler(bets *services.BetService, log *zap.Logger) *BetHandler {
	return &BetHandler{bets: bets, log: log}
}

// PlaceBet runs the placement workflow
// POST /sessions/:id/bets
func (h *BetHandler) PlaceBet(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid session id"})
		return
	}

	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	result, err := h.bets.Place(c.Request.Context(), userID, sessionID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// RecommendBet returns a dry-run recommendation, no insert
// POST /sessions/:id/recommend
func (h *BetHandler) RecommendBet(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid session id"})
		return
	}

	var req models.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	bank, rec, err := h.bets.Recommend(c.Request.Context(), userID, sessionID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bank":             bank,
		"recommendedPct":   rec.RecommendedPct,
		"recommendedStake": rec.RecommendedStake,
		"stakingModel":     rec.StakingModel,
	})
}

// SettleBet resolves a pending bet
// POST /bets/:id/settle
func (h *BetHandler) SettleBet(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid bet id"})
		return
	}

	var req models.SettleBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid result"})
		return
	}

	result, err := h.bets.Settle(c.Request.Context(), userID, betID, req.Result)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteBet removes a bet, reversing its capital effect if settled
// DELETE /bets/:id
func (h *BetHandler) DeleteBet(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid bet id"})
		return
	}

	if err := h.bets.Delete(c.Request.Context(), userID, betID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListBets lists the caller's bets across sessions
// GET /bets
func (h *BetHandler) ListBets(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	q, ok := h.betQuery(c)
	if !ok {
		return
	}

	result, err := h.bets.ListBets(c.Request.Context(), userID, q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Summary aggregates the whole filtered bet set
// GET /summary
func (h *BetHandler) Summary(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	q, ok := h.betQuery(c)
	if !ok {
		return
	}

	summary, err := h.bets.Summary(c.Request.Context(), userID, q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *BetHandler) betQuery(c *gin.Context) (services.BetListQuery, bool) {
	q := services.BetListQuery{
		Status: c.Query("status"),
		Game:   c.Query("game"),
		Tier:   intQuery(c, "tier", 0),
		Risk:   intQuery(c, "risk", 0),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Q:      c.Query("q"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	}

	if raw := c.Query("sessionId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid sessionId"})
			return q, false
		}
		q.SessionID = &id
	}
	return q, true
}
