package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-router/internal/aggregator"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/http/httputil"
	"github.com/hxuan190/clmm-router/internal/services/market"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

type PoolHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewPoolHandler(aggregatorSvc *aggregator.Service) *PoolHandler {
	return &PoolHandler{aggregatorSvc: aggregatorSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listPools)
	pub.GET("/:id", h.getPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolListResponse is one page of pools. Without mintA and mintB every pool
// the provider can enumerate is listed.
type PoolListResponse struct {
	Pools []market.PoolDTO `json:"pools"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Pages int              `json:"pages"`
}

func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	all, err := h.aggregatorSvc.ListPools(c.Request.Context(), c.Query("mintA"), c.Query("mintB"))
	if err != nil {
		httputil.FromError(c, err)
		return
	}
	total := len(all)

	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	pools := make([]market.PoolDTO, 0, end-offset)
	for i := range all[offset:end] {
		pools = append(pools, market.PoolToDTO(&all[offset+i]))
	}
	httputil.Success(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
	})
}

func (h *PoolHandler) getPool(c *gin.Context) {
	pool, err := h.aggregatorSvc.GetPool(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.FromError(c, err)
		return
	}
	if pool == nil {
		httputil.FromError(c, domain.ErrPoolNotFound)
		return
	}
	httputil.Success(c, market.PoolToDTO(pool))
}
