package restapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
)

// APIBalancesResponse is the balances endpoint payload.
type APIBalancesResponse struct {
	Chain   string                `json:"chain"`
	Address string                `json:"address"`
	Tokens  []entity.TokenBalance `json:"tokens"`
}

// APIErrorResponse is the error payload for every non-2xx status.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// BalanceHandler handles the wallet balance endpoints.
type BalanceHandler struct {
	balanceService port.BalanceService
	logger         *zap.Logger
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceService port.BalanceService, logger *zap.Logger) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		logger:         logger.Named("BalanceHandler"),
	}
}

// GetBalancesHandler serves GET /api/v1/balances?chain=&address=&refresh=.
// Validation failures are 400, an unreachable balances provider is 502,
// anything else (including a missing provider credential) is 500.
func (h *BalanceHandler) GetBalancesHandler(c *gin.Context) {
	chainID := c.Query("chain")
	chain, supported := entity.ChainByIdentifier(chainID)
	if !supported {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: entity.ErrUnsupportedChain.Error() + ": " + chainID})
		return
	}

	address := c.Query("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: entity.ErrInvalidAddress.Error()})
		return
	}

	forceRefresh, err := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "refresh must be a boolean"})
		return
	}

	tokens, err := h.balanceService.GetWalletBalances(c.Request.Context(), chain, address, forceRefresh)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, entity.ErrBalanceFetch) {
			status = http.StatusBadGateway
		}
		h.logger.Error("Balance request failed",
			zap.String("chain", chain.Identifier),
			zap.String("address", address),
			zap.Int("status", status),
			zap.Error(err))
		c.JSON(status, APIErrorResponse{Error: err.Error()})
		return
	}

	if tokens == nil {
		tokens = []entity.TokenBalance{}
	}
	c.Header("Cache-Control", "private, s-maxage=60, stale-while-revalidate=300")
	c.JSON(http.StatusOK, APIBalancesResponse{
		Chain:   chain.Identifier,
		Address: address,
		Tokens:  tokens,
	})
}

// GetChainsHandler serves GET /api/v1/chains.
func (h *BalanceHandler) GetChainsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chains": entity.SupportedChains()})
}
