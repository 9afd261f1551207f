package http

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/aggregator"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/http/httputil"
)

type QuoteHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewQuoteHandler(aggregatorSvc *aggregator.Service) *QuoteHandler {
	return &QuoteHandler{aggregatorSvc: aggregatorSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest is the query string of GET /api/v1/quote. Amounts are base units.
type QuoteRequest struct {
	InputMint  string `form:"inputMint" binding:"required"`
	OutputMint string `form:"outputMint" binding:"required"`
	Amount     string `form:"amount" binding:"required"`
	// SwapMode is ExactIn or ExactOut.
	SwapMode string `form:"swapMode"`
	// SlippageBps overrides the account policy for the threshold preview.
	SlippageBps       string `form:"slippageBps"`
	Account           string `form:"account"`
	SqrtPriceLimitX64 string `form:"sqrtPriceLimitX64"`
}

type ExclusionInfo struct {
	PoolID string `json:"poolId"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type QuoteResponse struct {
	PoolID     string `json:"poolId"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	SwapMode   string `json:"swapMode"`
	AToB       bool   `json:"aToB"`

	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	FeePaid   string `json:"feePaid"`
	FeeBps    uint32 `json:"feeBps"`

	PriceImpactBps      uint16 `json:"priceImpactBps"`
	PriceImpactPercent  string `json:"priceImpactPercent"`
	PriceImpactSeverity string `json:"priceImpactSeverity"`
	PriceImpactWarning  string `json:"priceImpactWarning,omitempty"`

	SqrtPriceAfter    string  `json:"sqrtPriceAfter"`
	TickAfter         int32   `json:"tickAfter"`
	CrossedTickArrays []int32 `json:"crossedTickArrays"`

	// OtherAmountThreshold is min-out for ExactIn and max-in for ExactOut.
	SlippageBps          uint16 `json:"slippageBps"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`

	CandidatesConsidered int             `json:"candidatesConsidered"`
	Ranked               []string        `json:"ranked"`
	Exclusions           []ExclusionInfo `json:"exclusions"`
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: amount must be a positive integer below 2^64", domain.ErrInvalidAmount)
	}
	return v, nil
}

func parseSqrtPriceLimit(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPriceLimit, err)
	}
	return v, nil
}

func parseSwapMode(s string) (domain.SwapMode, error) {
	m, err := domain.ParseSwapMode(s)
	if err != nil {
		return m, fmt.Errorf("%w: swapMode must be ExactIn or ExactOut", domain.ErrInvalidAmount)
	}
	return m, nil
}

func (h *QuoteHandler) parseQuoteRequest(c *gin.Context) (aggregator.QuoteRequest, error) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return aggregator.QuoteRequest{}, fmt.Errorf("%w: invalid query parameters: %v", domain.ErrInvalidAmount, err)
	}
	mode, err := parseSwapMode(req.SwapMode)
	if err != nil {
		return aggregator.QuoteRequest{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return aggregator.QuoteRequest{}, err
	}
	limit, err := parseSqrtPriceLimit(req.SqrtPriceLimitX64)
	if err != nil {
		return aggregator.QuoteRequest{}, err
	}
	out := aggregator.QuoteRequest{
		InputMint:         req.InputMint,
		OutputMint:        req.OutputMint,
		Mode:              mode,
		Amount:            amount,
		SqrtPriceLimitX64: limit,
		AccountID:         req.Account,
	}
	if req.SlippageBps != "" {
		bps, err := strconv.ParseUint(req.SlippageBps, 10, 16)
		if err != nil {
			return aggregator.QuoteRequest{}, fmt.Errorf("%w: slippageBps %q", domain.ErrInvalidSlippageConfig, req.SlippageBps)
		}
		b := uint16(bps)
		out.SlippageBps = &b
	}
	return out, nil
}

func buildQuoteResponse(inputMint, outputMint string, sel *domain.RouteSelection, slippageBps uint16, threshold uint64) QuoteResponse {
	q := sel.Quote
	exclusions := make([]ExclusionInfo, 0, len(sel.Exclusions))
	for _, e := range sel.Exclusions {
		exclusions = append(exclusions, ExclusionInfo{PoolID: e.PoolID, Reason: string(e.Reason), Detail: e.Detail})
	}
	crossed := q.CrossedTickArrayStarts
	if crossed == nil {
		crossed = []int32{}
	}
	sqrtAfter := "0"
	if q.SqrtPriceAfter != nil {
		sqrtAfter = q.SqrtPriceAfter.Dec()
	}
	return QuoteResponse{
		PoolID:               sel.Pool.ID,
		InputMint:            inputMint,
		OutputMint:           outputMint,
		SwapMode:             sel.Direction.Mode.String(),
		AToB:                 sel.Direction.AToB,
		AmountIn:             strconv.FormatUint(q.AmountIn, 10),
		AmountOut:            strconv.FormatUint(q.AmountOut, 10),
		FeePaid:              strconv.FormatUint(q.FeePaid, 10),
		FeeBps:               sel.Pool.FeeRateBps,
		PriceImpactBps:       q.PriceImpactBps,
		PriceImpactPercent:   fmt.Sprintf("%.2f%%", float64(q.PriceImpactBps)/100.0),
		SqrtPriceAfter:       sqrtAfter,
		TickAfter:            q.TickAfter,
		CrossedTickArrays:    crossed,
		SlippageBps:          slippageBps,
		OtherAmountThreshold: strconv.FormatUint(threshold, 10),
		CandidatesConsidered: sel.CandidatesConsidered,
		Ranked:               sel.Ranked,
		Exclusions:           exclusions,
	}
}

func (h *QuoteHandler) getQuote(c *gin.Context) {
	req, err := h.parseQuoteRequest(c)
	if err != nil {
		httputil.FromError(c, err)
		return
	}
	res, err := h.aggregatorSvc.Quote(c.Request.Context(), req)
	if err != nil {
		httputil.FromError(c, err)
		return
	}
	resp := buildQuoteResponse(req.InputMint, req.OutputMint, res.Selection, res.SlippageBps, res.ThresholdAmount)
	resp.PriceImpactSeverity = string(res.PriceImpactSeverity)
	resp.PriceImpactWarning = res.PriceImpactWarning
	httputil.Success(c, resp)
}
