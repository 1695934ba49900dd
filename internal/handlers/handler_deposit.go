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

// depositHandler handles HTTP requests related to deposits.
type depositHandler struct {
	depositService portssvc.DepositSvcFacade
	linkerService  portssvc.LinkerSvcFacade
}

// newDepositHandler creates a new depositHandler.
func newDepositHandler(ds portssvc.DepositSvcFacade, ls portssvc.LinkerSvcFacade) *depositHandler {
	return &depositHandler{
		depositService: ds,
		linkerService:  ls,
	}
}

// registerDepositRoutes registers routes related to deposits and their lifecycle.
func registerDepositRoutes(rg *gin.RouterGroup, depositService portssvc.DepositSvcFacade, linkerService portssvc.LinkerSvcFacade) {
	h := newDepositHandler(depositService, linkerService)

	deposits := rg.Group("/deposits")
	{
		deposits.POST("", h.createDeposit)
		deposits.GET("", h.listDeposits)
		deposits.GET("/:id", h.getDeposit)
		deposits.PUT("/:id", h.updateDeposit)
		deposits.DELETE("/:id", h.deleteDeposit)

		deposits.POST("/:id/settle", h.settleDeposit)
		deposits.POST("/:id/credit-balance", h.markCreditBalance)
		deposits.POST("/:id/use", h.useBalance)
		deposits.POST("/:id/return", h.returnDeposit)
		deposits.POST("/:id/link", h.linkDeposit)
		deposits.POST("/:id/unlink", h.unlinkDeposit)
	}
}

// depositError translates service errors to HTTP responses shared by the
// deposit lifecycle handlers.
func depositError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Deposit operation failed", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// createDeposit godoc
// @Summary Register a deposit
// @Description Registers a new deposit in PENDING state with its full amount available
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   deposit body dto.CreateDepositRequest true "Deposit details"
// @Success 201 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create deposit"
// @Security BearerAuth
// @Router /deposits [post]
func (h *depositHandler) createDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deposit, err := h.depositService.CreateDeposit(c.Request.Context(), userID, req.ToCreateDepositInput())
	if err != nil {
		depositError(c, logger, err, "create deposit")
		return
	}

	c.JSON(http.StatusCreated, dto.ToDepositResponse(deposit))
}

// listDeposits godoc
// @Summary List deposits
// @Description Retrieves a filtered, cursor-paginated page of deposits, most recent entry date first
// @Tags deposits
// @Produce  json
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Continuation token from the previous page"
// @Param   state query string false "Lifecycle state filter"
// @Param   linkedAccountID query string false "Only deposits linked to this account"
// @Param   fromDate query string false "Lower bound date (RFC3339)"
// @Param   toDate query string false "Upper bound date (RFC3339)"
// @Success 200 {object} dto.ListDepositsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list deposits"
// @Security BearerAuth
// @Router /deposits [get]
func (h *depositHandler) listDeposits(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListDepositsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	filter, err := buildDepositsFilter(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposits, nextToken, err := h.depositService.ListDeposits(c.Request.Context(), filter, params.Limit, params.NextToken)
	if err != nil {
		depositError(c, logger, err, "list deposits")
		return
	}

	c.JSON(http.StatusOK, dto.ListDepositsResponse{
		Deposits:  dto.ToListDepositResponse(deposits),
		NextToken: nextToken,
	})
}

func buildDepositsFilter(params dto.ListDepositsParams) (portsrepo.ListDepositsFilter, error) {
	var filter portsrepo.ListDepositsFilter
	if params.State != nil {
		s := domain.DepositState(*params.State)
		filter.State = &s
	}
	filter.LinkedAccountID = params.LinkedAccountID
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
	return filter, nil
}

// getDeposit godoc
// @Summary Get a deposit by ID
// @Tags deposits
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Success 200 {object} dto.DepositResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 500 {object} map[string]string "Failed to retrieve deposit"
// @Security BearerAuth
// @Router /deposits/{id} [get]
func (h *depositHandler) getDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	deposit, err := h.depositService.GetDepositByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		depositError(c, logger, err, "retrieve deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// updateDeposit godoc
// @Summary Edit a deposit
// @Description Edits holder, notes, entry date or original amount. Amount changes on a linked deposit rewrite the mirrored entry
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Param   deposit body dto.UpdateDepositRequest true "Fields to change"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 409 {object} map[string]string "Invalid lifecycle state"
// @Failure 500 {object} map[string]string "Failed to update deposit"
// @Security BearerAuth
// @Router /deposits/{id} [put]
func (h *depositHandler) updateDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deposit, err := h.depositService.UpdateDeposit(c.Request.Context(), userID, c.Param("id"), req.ToUpdateDepositInput())
	if err != nil {
		depositError(c, logger, err, "update deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// deleteDeposit godoc
// @Summary Delete a deposit
// @Description Removes a deposit. A LINKED deposit's mirrored entry is removed first, atomically
// @Tags deposits
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Success 204 "Deleted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Failure 500 {object} map[string]string "Failed to delete deposit"
// @Security BearerAuth
// @Router /deposits/{id} [delete]
func (h *depositHandler) deleteDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.depositService.DeleteDeposit(c.Request.Context(), userID, c.Param("id")); err != nil {
		depositError(c, logger, err, "delete deposit")
		return
	}

	c.Status(http.StatusNoContent)
}

// settleDeposit godoc
// @Summary Settle a deposit
// @Description Marks the deposit fully consumed on the given usage date, dropping its balance to zero
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Param   request body dto.SettleDepositRequest true "Settlement details"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 409 {object} map[string]string "Invalid lifecycle state"
// @Failure 500 {object} map[string]string "Failed to settle deposit"
// @Security BearerAuth
// @Router /deposits/{id}/settle [post]
func (h *depositHandler) settleDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.SettleDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid settle request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	deposit, err := h.depositService.Settle(c.Request.Context(), userID, c.Param("id"), req.UsageDate)
	if err != nil {
		depositError(c, logger, err, "settle deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// markCreditBalance godoc
// @Summary Mark a deposit as credit balance
// @Description Flags the deposit as holding the given usable remaining balance
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Param   request body dto.MarkCreditBalanceRequest true "Remaining balance"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid request body or amount out of bounds"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 409 {object} map[string]string "Invalid lifecycle state"
// @Failure 500 {object} map[string]string "Failed to mark deposit"
// @Security BearerAuth
// @Router /deposits/{id}/credit-balance [post]
func (h *depositHandler) markCreditBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.MarkCreditBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid credit balance request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	deposit, err := h.depositService.MarkCreditBalance(c.Request.Context(), userID, c.Param("id"), req.RemainingAmount)
	if err != nil {
		depositError(c, logger, err, "mark deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// useBalance godoc
// @Summary Use part of a deposit's balance
// @Description Consumes part of the remaining balance; the deposit settles once the balance reaches zero
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Param   usage body dto.UseBalanceRequest true "Usage details"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 409 {object} map[string]string "Invalid lifecycle state"
// @Failure 500 {object} map[string]string "Failed to use deposit balance"
// @Security BearerAuth
// @Router /deposits/{id}/use [post]
func (h *depositHandler) useBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UseBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deposit, err := h.depositService.UseBalance(c.Request.Context(), userID, c.Param("id"), req.ToUseBalanceInput())
	if err != nil {
		depositError(c, logger, err, "use deposit balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// returnDeposit godoc
// @Summary Return a deposit to its holder
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Param   return body dto.ReturnDepositRequest true "Return details"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 409 {object} map[string]string "Invalid lifecycle state"
// @Failure 500 {object} map[string]string "Failed to return deposit"
// @Security BearerAuth
// @Router /deposits/{id}/return [post]
func (h *depositHandler) returnDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReturnDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deposit, err := h.depositService.Return(c.Request.Context(), userID, c.Param("id"), req.ReturnDate)
	if err != nil {
		depositError(c, logger, err, "return deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// linkDeposit godoc
// @Summary Link a deposit to an account
// @Description Mirrors the deposit's original amount as a credit entry on the account, atomically
// @Tags deposits
// @Accept  json
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Param   link body dto.LinkDepositRequest true "Link target"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit or account not found"
// @Failure 409 {object} map[string]string "Invalid lifecycle state"
// @Failure 500 {object} map[string]string "Failed to link deposit"
// @Security BearerAuth
// @Router /deposits/{id}/link [post]
func (h *depositHandler) linkDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.LinkDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deposit, err := h.linkerService.Link(c.Request.Context(), userID, c.Param("id"), req.AccountID, req.ClientID)
	if err != nil {
		depositError(c, logger, err, "link deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}

// unlinkDeposit godoc
// @Summary Unlink a deposit from its account
// @Description Deletes the mirrored entry and restores the deposit's full original amount as a usable credit balance
// @Tags deposits
// @Produce  json
// @Param   id path string true "Deposit ID"
// @Success 200 {object} dto.DepositResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deposit not found"
// @Failure 409 {object} map[string]string "Deposit is not linked"
// @Failure 500 {object} map[string]string "Failed to unlink deposit"
// @Security BearerAuth
// @Router /deposits/{id}/unlink [post]
func (h *depositHandler) unlinkDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deposit, err := h.linkerService.Unlink(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		depositError(c, logger, err, "unlink deposit")
		return
	}

	c.JSON(http.StatusOK, dto.ToDepositResponse(deposit))
}
