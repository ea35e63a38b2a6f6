package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"parkreserve/internal/api"
	"parkreserve/internal/auth"
	"parkreserve/internal/logger"
	"parkreserve/internal/metrics"
	"parkreserve/internal/web"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo   Repository
	toasts web.ToastDrainer
}

// NewHandler builds the wallet handler. toasts may be nil.
func NewHandler(repo Repository, toasts web.ToastDrainer) *Handler {
	return &Handler{
		repo:   repo,
		toasts: toasts,
	}
}

type TopUpRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required" validate:"gt=0"`
}

type TopUpResponse struct {
	Message string  `json:"message"`
	Wallet  *Wallet `json:"wallet"`
}

// PageData feeds the wallet page.
type PageData struct {
	Wallet       *Wallet
	Transactions []Transaction
}

// Page renders the wallet screen reached from the profile.
func (h *Handler) Page(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.HTML(http.StatusUnauthorized, "auth_required.html", web.Page{
			Title:  "Sign in required",
			Toasts: web.DrainToasts(c, h.toasts),
		})
		return
	}

	ctx := c.Request.Context()
	w, err := h.repo.GetOrCreateWallet(ctx, userID)
	if err != nil {
		logger.Error("failed to load wallet", "user_id", userID, "error", err)
		web.Error(c, http.StatusInternalServerError, "Something went wrong", "Your wallet could not be loaded.")
		return
	}

	txs, err := h.repo.GetTransactions(ctx, userID, 20, 0)
	if err != nil {
		logger.Warn("failed to load wallet transactions", "user_id", userID, "error", err)
		txs = nil
	}

	c.HTML(http.StatusOK, "wallet.html", web.Page{
		Title:  "Wallet",
		Toasts: web.DrainToasts(c, h.toasts),
		Data:   PageData{Wallet: w, Transactions: txs},
	})
}

// GetBalance godoc
// @Summary      Get wallet
// @Description  Returns the wallet of the current user, creating an empty one on first use.
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  wallet.Wallet
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /api/wallet [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	w, err := h.repo.GetOrCreateWallet(c.Request.Context(), userID)
	if err != nil {
		logger.Error("failed to load wallet", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, w)
}

// TopUp godoc
// @Summary      Top up wallet
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      TopUpRequest  true  "Amount in cents"
// @Success      200      {object}  TopUpResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /api/wallet/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount_cents must be positive"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, api.ValidationErrorResponse{Error: "validation failed", Details: errs})
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.TopUp(ctx, userID, req.AmountCents); err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("wallet top up failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to top up wallet"})
		return
	}
	metrics.RecordWalletTopUp()

	w, err := h.repo.GetOrCreateWallet(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load wallet after top up"})
		return
	}

	c.JSON(http.StatusOK, TopUpResponse{Message: "wallet recharged", Wallet: w})
}

// ListTransactions godoc
// @Summary      List wallet transactions
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size, at most 100"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   wallet.Transaction
// @Failure      401     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /api/wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.Error("failed to load transactions", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}
