package chat

import (
	"net/http"
	"strconv"

	"RoomRelay/logger"
	"RoomRelay/module/chat/model"

	"github.com/gin-gonic/gin"
)

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 200
)

// HandleHistory serves GET /rooms/:roomId/history?limit=N.
// Limit defaults to 50 and is clamped to 200; messages come back oldest
// first.
func (s *Server) HandleHistory(c *gin.Context) {
	roomID := c.Param("roomId")

	limit := historyDefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	msgs, err := s.store.History(c.Request.Context(), roomID, limit)
	if err != nil {
		logger.Errorf("[history] room=%s err=%v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}
