package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-router/internal/aggregator"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/http/httputil"
)

// SlippageHandler reads and writes per-account slippage policies.
type SlippageHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewSlippageHandler(aggregatorSvc *aggregator.Service) *SlippageHandler {
	return &SlippageHandler{aggregatorSvc: aggregatorSvc}
}

func (h *SlippageHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:account", h.getPolicy)
	pub.PUT("/:account", h.setPolicy)
}

func (h *SlippageHandler) Root() string {
	return "/slippage"
}

type SlippagePolicyRequest struct {
	// Bps is a pointer so an explicit zero is distinguishable from a missing field.
	Bps *uint16 `json:"bps" binding:"required"`
}

type SlippagePolicyResponse struct {
	Account string `json:"account"`
	Bps     uint16 `json:"bps"`
}

func (h *SlippageHandler) getPolicy(c *gin.Context) {
	account := c.Param("account")
	p, err := h.aggregatorSvc.GetPolicy(c.Request.Context(), account)
	if err != nil {
		httputil.FromError(c, err)
		return
	}
	httputil.Success(c, SlippagePolicyResponse{Account: account, Bps: p.Bps})
}

func (h *SlippageHandler) setPolicy(c *gin.Context) {
	account := c.Param("account")
	var req SlippagePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.FromError(c, fmt.Errorf("%w: %v", domain.ErrInvalidSlippageConfig, err))
		return
	}
	p := domain.SlippagePolicy{Bps: *req.Bps}
	if err := h.aggregatorSvc.SetPolicy(c.Request.Context(), account, p); err != nil {
		httputil.FromError(c, err)
		return
	}
	httputil.Success(c, SlippagePolicyResponse{Account: account, Bps: p.Bps})
}
