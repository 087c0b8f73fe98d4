// Package http 提供订单簿服务的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/application"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/pkg/response"
)

// Handler 订单簿 HTTP 处理器
type Handler struct {
	manager *application.CrossChainManager
	query   *application.OrderBookQueryService
	health  *application.HealthMonitor
}

// NewHandler 创建处理器
func NewHandler(
	manager *application.CrossChainManager,
	query *application.OrderBookQueryService,
	health *application.HealthMonitor,
) *Handler {
	return &Handler{manager: manager, query: query, health: health}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("/maker", h.SubmitMakerOrder)
		orders.POST("/taker", h.ProcessTakerOrder)
		orders.GET("", h.ListOrdersByMaker)
		orders.GET("/:id", h.GetOrder)
		orders.DELETE("/:id", h.CancelOrder)
		orders.GET("/:id/matches", h.ListMatchesByOrder)
	}
	router.GET("/matches/:id", h.GetMatch)
	router.GET("/orderbook", h.GetDepth)
	router.GET("/health", h.Health)
}

// SubmitMakerOrder 提交 maker 挂单
func (h *Handler) SubmitMakerOrder(c *gin.Context) {
	var cmd application.PlaceOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	order, err := h.manager.SubmitMakerOrder(c.Request.Context(), cmd)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, order)
}

// ProcessTakerOrder 提交 taker 吃单
func (h *Handler) ProcessTakerOrder(c *gin.Context) {
	var cmd application.PlaceOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	result, err := h.manager.ProcessTakerOrder(c.Request.Context(), cmd)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, result)
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	order, err := h.manager.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrder 查询订单
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.query.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrdersByMaker 查询某个 maker 的订单
func (h *Handler) ListOrdersByMaker(c *gin.Context) {
	maker := c.Query("maker")
	if maker == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "maker is required", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	orders, err := h.query.ListOrdersByMaker(c.Request.Context(), maker, limit, offset)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, orders)
}

// GetMatch 查询撮合
func (h *Handler) GetMatch(c *gin.Context) {
	match, err := h.query.GetMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, match)
}

// ListMatchesByOrder 查询订单参与的撮合
func (h *Handler) ListMatchesByOrder(c *gin.Context) {
	matches, err := h.query.ListMatchesByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, matches)
}

// GetDepth 查询订单簿深度
func (h *Handler) GetDepth(c *gin.Context) {
	pair := domain.PairKey{
		BaseAssetID:  c.Query("base_asset"),
		BaseChainID:  c.Query("base_chain"),
		QuoteAssetID: c.Query("quote_asset"),
		QuoteChainID: c.Query("quote_chain"),
	}
	if pair.BaseAssetID == "" || pair.BaseChainID == "" || pair.QuoteAssetID == "" || pair.QuoteChainID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "base_asset, base_chain, quote_asset and quote_chain are required", nil)
		return
	}
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "20"))
	snapshot, err := h.query.GetDepth(c.Request.Context(), pair, depth)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// Health 系统健康报告
func (h *Handler) Health(c *gin.Context) {
	report := h.health.Report()
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// renderError 按错误类型映射 HTTP 状态码
func (h *Handler) renderError(c *gin.Context, err error) {
	var (
		validationErr     *domain.ValidationError
		unknownErr        *domain.UnknownEntityError
		liquidityErr      *domain.InsufficientLiquidityError
		profitabilityErr  *domain.ProfitabilityError
		reconciliationErr *domain.ReconciliationError
	)
	switch {
	case errors.As(err, &validationErr):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &unknownErr):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), nil)
	case errors.As(err, &liquidityErr), errors.As(err, &profitabilityErr):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.As(err, &reconciliationErr):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), nil)
	default:
		response.Error(c, err)
	}
}
