package handler

import (
	"context"
	"time"

	"denomination-wallet/internal/adapter/http/dto"
	"denomination-wallet/internal/adapter/http/middleware"
	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"
	"denomination-wallet/pkg/apperror"
	"denomination-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const (
	msgDeposited = "Money added successfully."
	msgWithdrawn = "Withdraw successful."
)

// WalletHandler handles wallet, denomination and transaction endpoints.
type WalletHandler struct {
	commands ports.WalletCommandService
	queries  ports.WalletQueryService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(commands ports.WalletCommandService, queries ports.WalletQueryService) *WalletHandler {
	return &WalletHandler{commands: commands, queries: queries}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	walletID := uuid.Nil
	if req.ID != "" {
		walletID = uuid.MustParse(req.ID) // validated by the uuid tag
	}

	result, err := h.commands.CreateWallet(c.Request.Context(), ports.CreateWalletRequest{
		ActorID:  actorID,
		WalletID: walletID,
		Name:     req.Name,
		Currency: req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result.Wallet)
}

// ListWallets handles GET /api/v1/wallets.
func (h *WalletHandler) ListWallets(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallets, err := h.queries.ListWallets(c.Request.Context(), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallets)
}

// GetWallet handles GET /api/v1/wallets/:id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	actorID, walletID, ok := walletRequest(c)
	if !ok {
		return
	}

	wallet, err := h.queries.GetWallet(c.Request.Context(), actorID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallet)
}

// UpdateWallet handles PATCH /api/v1/wallets/:id.
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	actorID, walletID, ok := walletRequest(c)
	if !ok {
		return
	}

	var req dto.UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.commands.UpdateWallet(c.Request.Context(), ports.UpdateWalletRequest{
		ActorID:  actorID,
		WalletID: walletID,
		Name:     req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result.Wallet)
}

// AddDenomination handles POST /api/v1/wallets/:id/denominations.
func (h *WalletHandler) AddDenomination(c *gin.Context) {
	actorID, walletID, ok := walletRequest(c)
	if !ok {
		return
	}

	var req dto.AddDenominationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.commands.AddDenomination(c.Request.Context(), ports.AddDenominationRequest{
		ActorID:  actorID,
		WalletID: walletID,
		Name:     req.Name,
		Type:     req.Type,
		Value:    req.Value,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.DenominationResponse{Denomination: result.Denomination, Wallet: result.Wallet})
}

// ListDenominations handles GET /api/v1/wallets/:id/denominations.
func (h *WalletHandler) ListDenominations(c *gin.Context) {
	actorID, walletID, ok := walletRequest(c)
	if !ok {
		return
	}

	denoms, err := h.queries.ListDenominations(c.Request.Context(), actorID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, denoms)
}

// RemoveDenomination handles DELETE /api/v1/wallets/:id/denominations/:denominationId.
func (h *WalletHandler) RemoveDenomination(c *gin.Context) {
	actorID, walletID, ok := walletRequest(c)
	if !ok {
		return
	}
	denomID, err := uuid.Parse(c.Param("denominationId"))
	if err != nil {
		response.Error(c, apperror.Validation("denominationId must be a UUID"))
		return
	}

	result, err := h.commands.RemoveDenomination(c.Request.Context(), ports.RemoveDenominationRequest{
		ActorID:        actorID,
		WalletID:       walletID,
		DenominationID: denomID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.DenominationResponse{Denomination: result.Denomination, Wallet: result.Wallet})
}

// Deposit handles POST /api/v1/wallets/:id/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.moveMoney(c, h.commands.Deposit, msgDeposited)
}

// Withdraw handles POST /api/v1/wallets/:id/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.moveMoney(c, h.commands.Withdraw, msgWithdrawn)
}

type moneyCommand func(ctx context.Context, req ports.MoneyRequest) (*ports.CommandResult, error)

func (h *WalletHandler) moveMoney(c *gin.Context, run moneyCommand, message string) {
	actorID, walletID, ok := walletRequest(c)
	if !ok {
		return
	}

	idempotencyKey := c.GetHeader(HeaderIdempotencyKey)
	if idempotencyKey != "" && !dto.ValidIdempotencyKey(idempotencyKey) {
		response.Error(c, apperror.Validation("invalid Idempotency-Key header"))
		return
	}

	var req dto.MoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	items := make([]domain.LineItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		denomID := uuid.MustParse(item.DenominationID) // validated by the uuid tag
		quantity, whole := item.WholeQuantity()
		if !whole {
			response.Error(c, fractionalQuantity(denomID, item.Quantity.String()))
			return
		}
		items = append(items, domain.LineItemRequest{DenominationID: denomID, Quantity: quantity})
	}

	result, err := run(c.Request.Context(), ports.MoneyRequest{
		ActorID:        actorID,
		WalletID:       walletID,
		Currency:       req.Currency,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.MoneyResponse{
		Success:            true,
		Message:            message,
		Wallet:             result.Wallet,
		TransactionGroupID: result.TransactionGroupID.String(),
		Replayed:           result.Replayed,
	})
}

// ListTransactions handles GET /api/v1/wallets/:id/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	actorID, walletID, ok := walletRequest(c)
	if !ok {
		return
	}

	var q dto.TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	filter, err := toTransactionFilter(q)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	page, err := h.queries.ListTransactions(c.Request.Context(), ports.TransactionListParams{
		ActorID:  actorID,
		WalletID: walletID,
		Filter:   filter,
		Page:     domain.Page{Page: q.Page, PageSize: q.PageSize},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	totalPages := 0
	if page.PageSize > 0 {
		totalPages = int((page.Total + int64(page.PageSize) - 1) / int64(page.PageSize))
	}
	response.OK(c, dto.TransactionListResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: totalPages,
	})
}

func fractionalQuantity(denomID uuid.UUID, quantity string) *apperror.AppError {
	err := &domain.WalletError{
		Kind:           domain.ErrKindInvalidQuantity,
		DenominationID: denomID,
		Reason:         "quantity " + quantity + " is not a whole number of units",
	}
	return apperror.ErrInvalidQuantity(err).
		WithDetail("quantity", quantity).
		WithDetail("denomination_id", denomID.String())
}

// walletRequest extracts the actor and the :id path parameter, writing the
// error response itself when either is missing.
func walletRequest(c *gin.Context) (string, uuid.UUID, bool) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return "", uuid.Nil, false
	}
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return "", uuid.Nil, false
	}
	return actorID, walletID, true
}

func toTransactionFilter(q dto.TransactionListQuery) (domain.TransactionFilter, error) {
	filter := domain.TransactionFilter{Type: domain.TransactionType(q.Type)}
	if q.DenominationID != "" {
		id := uuid.MustParse(q.DenominationID)
		filter.DenominationID = &id
	}
	if q.TransactionGroupID != "" {
		id := uuid.MustParse(q.TransactionGroupID)
		filter.TransactionGroupID = &id
	}
	if q.From != "" {
		from, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	return filter, nil
}
