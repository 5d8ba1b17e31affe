package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankroll-terminal/internal/auth"
	"bankroll-terminal/internal/models"
	"bankroll-terminal/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
	log      *zap.Logger
}

func NewSessionHandler(sessions *services.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

// CreateSession creates a bankroll session
// POST /sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// ListSessions lists the caller's sessions with filters
// GET /sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	q := services.SessionListQuery{
		Status: c.Query("status"),
		Q:      c.Query("q"),
		Profit: c.Query("profit"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	}

	result, err := h.sessions.List(c.Request.Context(), userID, q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSession reads one session with its bets
// GET /sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid session id"})
		return
	}

	session, err := h.sessions.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// CloseSession transitions a session to CLOSED
// POST /sessions/:id/close
func (h *SessionHandler) CloseSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid session id"})
		return
	}

	session, err := h.sessions.Close(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteSession cascades deletion of a session and its bets
// DELETE /sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid session id"})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
