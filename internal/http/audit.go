package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// GetAuditEvents returns the caller's audit events, newest first.
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	userID := auth.GetUserID(c)
	page, limit := parsePage(c, 25, 100)
	offset := (page - 1) * limit

	events, total, err := ac.auditService.GetEvents(userID, limit, offset)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Uint("user_id", userID).Msg("failed to load audit events")
		respondMsg(c, http.StatusInternalServerError, "Failed to load audit events.")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}

// BookHistory returns the recorded mutations of one book, oldest first.
// The history outlives the book itself.
// GET /api/books/:id/history
func (ac *AuditController) BookHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	events, err := ac.auditService.History(id)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Uint("book_id", id).Msg("failed to load book history")
		respondMsg(c, http.StatusInternalServerError, "Failed to load book history.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": events})
}
