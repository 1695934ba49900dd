package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/finbooks/caledger/internal/apperrors"
	"github.com/finbooks/caledger/internal/core/domain"
	portsrepo "github.com/finbooks/caledger/internal/core/ports/repositories"
	portssvc "github.com/finbooks/caledger/internal/core/ports/services"
	"github.com/finbooks/caledger/internal/dto"
	"github.com/finbooks/caledger/internal/middleware"
	"github.com/finbooks/caledger/internal/utils/accounting"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests related to ledger entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// registerLedgerRoutes registers routes related to ledger entries.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	accounts := rg.Group("/accounts/:id")
	{
		accounts.POST("/entries", h.createEntry)
		accounts.GET("/entries", h.listEntries)
		accounts.DELETE("/entries", h.clearAccount)
		accounts.POST("/recompute", h.recomputeAccount)
	}

	entries := rg.Group("/entries")
	{
		entries.GET("/:id", h.getEntry)
		entries.PUT("/:id", h.updateEntry)
		entries.DELETE("/:id", h.deleteEntry)
	}
}

// ledgerError translates service errors to HTTP responses shared by the
// entry mutation handlers.
func ledgerError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Ledger operation failed", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// createEntry godoc
// @Summary Append a ledger entry
// @Description Appends a dated credit or debit entry to the account and returns it with its resulting balance
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   entry body dto.CreateEntryRequest true "Entry details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Failure 500 {object} map[string]string "Failed to create entry"
// @Security BearerAuth
// @Router /accounts/{id}/entries [post]
func (h *ledgerHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.ledgerService.CreateEntry(c.Request.Context(), userID, req.ToCreateEntryInput(c.Param("id")))
	if err != nil {
		ledgerError(c, logger, err, "create entry")
		return
	}

	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List an account's entries
// @Description Retrieves a filtered, cursor-paginated page of the account's entries, most recent first
// @Tags entries
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Continuation token from the previous page"
// @Param   fromDate query string false "Lower bound date (RFC3339)"
// @Param   toDate query string false "Upper bound date (RFC3339)"
// @Param   direction query string false "CREDIT or DEBIT"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to list entries"
// @Security BearerAuth
// @Router /accounts/{id}/entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	filter, err := buildEntriesFilter(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, nextToken, err := h.ledgerService.ListEntries(c.Request.Context(), c.Param("id"), filter, params.Limit, params.NextToken)
	if err != nil {
		ledgerError(c, logger, err, "list entries")
		return
	}

	c.JSON(http.StatusOK, dto.ListEntriesResponse{
		Entries:   dto.ToListEntryResponse(entries),
		NextToken: nextToken,
	})
}

func buildEntriesFilter(params dto.ListEntriesParams) (portsrepo.ListEntriesFilter, error) {
	var filter portsrepo.ListEntriesFilter
	if params.FromDate != nil {
		t, err := time.Parse(time.RFC3339, *params.FromDate)
		if err != nil {
			return filter, errors.New("invalid fromDate, expected RFC3339")
		}
		day := accounting.DayOf(t)
		filter.FromDate = &day
	}
	if params.ToDate != nil {
		t, err := time.Parse(time.RFC3339, *params.ToDate)
		if err != nil {
			return filter, errors.New("invalid toDate, expected RFC3339")
		}
		day := accounting.DayOf(t)
		filter.ToDate = &day
	}
	if params.Direction != nil {
		d := domain.EntryDirection(*params.Direction)
		if d != domain.Credit && d != domain.Debit {
			return filter, errors.New("invalid direction, expected CREDIT or DEBIT")
		}
		filter.Direction = &d
	}
	return filter, nil
}

// getEntry godoc
// @Summary Get a ledger entry by ID
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve entry"
// @Security BearerAuth
// @Router /entries/{id} [get]
func (h *ledgerHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	entry, err := h.ledgerService.GetEntryByID(c.Request.Context(), entryID)
	if err != nil {
		ledgerError(c, logger, err, "retrieve entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// updateEntry godoc
// @Summary Edit a ledger entry
// @Description Edits label, amount, direction or date. Label-only edits leave balances alone; anything else recomputes the account
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   entry body dto.UpdateEntryRequest true "Fields to change"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is managed by a linked deposit"
// @Failure 500 {object} map[string]string "Failed to update entry"
// @Security BearerAuth
// @Router /entries/{id} [put]
func (h *ledgerHandler) updateEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.ledgerService.UpdateEntry(c.Request.Context(), userID, c.Param("id"), req.ToUpdateEntryInput())
	if err != nil {
		ledgerError(c, logger, err, "update entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// deleteEntry godoc
// @Summary Delete a ledger entry
// @Description Removes the entry and recomputes downstream balances
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 204 "Deleted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is managed by a linked deposit"
// @Failure 500 {object} map[string]string "Failed to delete entry"
// @Security BearerAuth
// @Router /entries/{id} [delete]
func (h *ledgerHandler) deleteEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.ledgerService.DeleteEntry(c.Request.Context(), userID, c.Param("id")); err != nil {
		ledgerError(c, logger, err, "delete entry")
		return
	}

	c.Status(http.StatusNoContent)
}

// clearAccount godoc
// @Summary Clear an account's ledger
// @Description Removes every entry of the account and resets its balance to zero
// @Tags entries
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 204 "Cleared"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to clear account"
// @Security BearerAuth
// @Router /accounts/{id}/entries [delete]
func (h *ledgerHandler) clearAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.ledgerService.ClearAccount(c.Request.Context(), userID, c.Param("id")); err != nil {
		ledgerError(c, logger, err, "clear account")
		return
	}

	c.Status(http.StatusNoContent)
}

// recomputeAccount godoc
// @Summary Recompute an account's balances
// @Description Rebuilds every resulting balance from a zero baseline. Repair action for operators
// @Tags entries
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 204 "Recomputed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to recompute account"
// @Security BearerAuth
// @Router /accounts/{id}/recompute [post]
func (h *ledgerHandler) recomputeAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.ledgerService.RecomputeAccount(c.Request.Context(), userID, c.Param("id")); err != nil {
		ledgerError(c, logger, err, "recompute account")
		return
	}

	c.Status(http.StatusNoContent)
}
