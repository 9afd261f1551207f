package http

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-router/internal/aggregator"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/http/httputil"
	"github.com/hxuan190/clmm-router/internal/services/quoter"
)

type SwapHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewSwapHandler(aggregatorSvc *aggregator.Service) *SwapHandler {
	return &SwapHandler{aggregatorSvc: aggregatorSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.swap)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapHandlerRequest routes and settles a swap under the account's slippage policy.
type SwapHandlerRequest struct {
	Account           string `json:"account" binding:"required"`
	InputMint         string `json:"inputMint" binding:"required"`
	OutputMint        string `json:"outputMint" binding:"required"`
	Amount            string `json:"amount" binding:"required,number"`
	SwapMode          string `json:"swapMode"`
	SqrtPriceLimitX64 string `json:"sqrtPriceLimitX64,omitempty" binding:"omitempty,number"`
}

type EnvelopeInfo struct {
	PoolID            string `json:"poolId"`
	SwapMode          string `json:"swapMode"`
	AToB              bool   `json:"aToB"`
	Amount            string `json:"amount"`
	ThresholdAmount   string `json:"thresholdAmount"`
	SqrtPriceLimitX64 string `json:"sqrtPriceLimitX64"`
}

type SettlementInfo struct {
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	FeePaid   string `json:"feePaid"`
	Slot      uint64 `json:"slot,omitempty"`
}

type SwapResponse struct {
	Quote      QuoteResponse  `json:"quote"`
	Envelope   EnvelopeInfo   `json:"envelope"`
	Settlement SettlementInfo `json:"settlement"`
}

func (h *SwapHandler) parseSwapRequest(c *gin.Context) (aggregator.SwapRequest, error) {
	var req SwapHandlerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return aggregator.SwapRequest{}, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidAmount, err)
	}
	mode, err := parseSwapMode(req.SwapMode)
	if err != nil {
		return aggregator.SwapRequest{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return aggregator.SwapRequest{}, err
	}
	limit, err := parseSqrtPriceLimit(req.SqrtPriceLimitX64)
	if err != nil {
		return aggregator.SwapRequest{}, err
	}
	return aggregator.SwapRequest{
		AccountID:         req.Account,
		InputMint:         req.InputMint,
		OutputMint:        req.OutputMint,
		Mode:              mode,
		Amount:            amount,
		SqrtPriceLimitX64: limit,
	}, nil
}

func (h *SwapHandler) swap(c *gin.Context) {
	req, err := h.parseSwapRequest(c)
	if err != nil {
		httputil.FromError(c, err)
		return
	}
	res, err := h.aggregatorSvc.Swap(c.Request.Context(), req)
	if err != nil {
		httputil.FromError(c, err)
		return
	}

	env := res.Envelope
	quote := buildQuoteResponse(req.InputMint, req.OutputMint, res.Selection, res.SlippageBps, env.ThresholdAmount)
	quote.PriceImpactSeverity = string(quoter.GetPriceImpactSeverity(quote.PriceImpactBps))
	quote.PriceImpactWarning = quoter.GetPriceImpactWarning(quote.PriceImpactBps)

	limit := "0"
	if env.SqrtPriceLimitX64 != nil {
		limit = env.SqrtPriceLimitX64.Dec()
	}
	httputil.Success(c, SwapResponse{
		Quote: quote,
		Envelope: EnvelopeInfo{
			PoolID:            env.PoolID,
			SwapMode:          env.Direction.Mode.String(),
			AToB:              env.Direction.AToB,
			Amount:            strconv.FormatUint(env.Amount, 10),
			ThresholdAmount:   strconv.FormatUint(env.ThresholdAmount, 10),
			SqrtPriceLimitX64: limit,
		},
		Settlement: SettlementInfo{
			AmountIn:  strconv.FormatUint(res.Settlement.AmountIn, 10),
			AmountOut: strconv.FormatUint(res.Settlement.AmountOut, 10),
			FeePaid:   strconv.FormatUint(res.Settlement.FeePaid, 10),
			Slot:      res.Settlement.Slot,
		},
	})
}
