package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workforce/login-service/internal/core/domain"
	"github.com/workforce/login-service/internal/core/ports"
)

const (
	defaultOrphanLimit = 50
	maxOrphanLimit     = 1000
)

// OrphanHandler exposes registrations whose compensation failed.
type OrphanHandler struct {
	journal ports.CompensationJournal
	log     zerolog.Logger
}

// NewOrphanHandler accepts a nil journal, in which case the list is always empty.
func NewOrphanHandler(journal ports.CompensationJournal, log zerolog.Logger) *OrphanHandler {
	return &OrphanHandler{journal: journal, log: log}
}

// List returns the most recent orphan records, newest first.
//
// @Summary      Recent failed compensations
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum records (default 50, max 1000)"
// @Success      200    {array}   domain.OrphanRecord
// @Failure      400    {object}  errorBody
// @Failure      401    {object}  errorBody
// @Failure      403    {object}  errorBody
// @Router       /api/v1/admin/orphans [get]
func (h *OrphanHandler) List(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	limit := int64(defaultOrphanLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxOrphanLimit {
			return domain.Validation("limit must be between 1 and 1000")
		}
		limit = n
	}

	if h.journal == nil {
		return c.JSON(http.StatusOK, []domain.OrphanRecord{})
	}

	records, err := h.journal.Recent(c.Request().Context(), limit)
	if err != nil {
		return domain.Dependency("could not read compensation journal", err)
	}

	h.log.Info().
		Str("requested_by", claims.UserID).
		Int("count", len(records)).
		Msg("orphan records listed")
	return c.JSON(http.StatusOK, records)
}
