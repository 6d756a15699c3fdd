package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/catalog"
)

// ErrorResponse is the error body of every API failure.
type ErrorResponse struct {
	Msg    string            `json:"msg"`
	Errors map[string]string `json:"errors,omitempty"` // per-field validation messages
}

func respondMsg(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Msg: msg})
}

// respondCatalogError maps a catalog failure to its status code. The
// wrapped cause is logged and never written to the response.
func respondCatalogError(c *gin.Context, err error, strict bool) {
	var ce *catalog.Error
	if !errors.As(err, &ce) {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("unexpected catalog error")
		respondMsg(c, statusFor(catalog.KindInternal, strict), "Internal error.")
		return
	}

	status := statusFor(ce.Kind, strict)
	if ce.Kind == catalog.KindInternal {
		log.Ctx(c.Request.Context()).Error().Err(ce.Err).Int("status", status).Msg(ce.Msg)
	}

	c.JSON(status, ErrorResponse{Msg: ce.Msg, Errors: ce.Fields})
}

// statusFor returns the HTTP status for a failure kind. Legacy mode
// answers 404 for every failure except validation.
func statusFor(kind catalog.Kind, strict bool) int {
	switch kind {
	case catalog.KindValidation:
		return http.StatusUnprocessableEntity
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindNotAPublisher, catalog.KindAccessDenied:
		if strict {
			return http.StatusForbidden
		}
		return http.StatusNotFound
	default:
		if strict {
			return http.StatusInternalServerError
		}
		return http.StatusNotFound
	}
}

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondMsg(c, http.StatusBadRequest, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePage reads page/limit query parameters, clamping limit to
// [1, maxLimit].
func parsePage(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}
