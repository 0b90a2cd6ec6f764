package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/service"
)

type CraftHandler struct {
	svc *service.CraftService
}

func NewCraftHandler(svc *service.CraftService) *CraftHandler {
	return &CraftHandler{svc: svc}
}

// Evaluate 单个成品可制造性查询
func (h *CraftHandler) Evaluate(c *gin.Context) {
	bomNumber := c.Query("bom_number")
	if bomNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "bom_number不能为空"})
		return
	}
	quantity, _ := strconv.Atoi(c.DefaultQuery("quantity", "0"))
	res, err := h.svc.Evaluate(bomNumber, quantity)
	if errors.Is(err, service.ErrBomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": res})
}

// Batch 批量评估。bom_number缺省时评估目录全部成品，quantity缺省按配置默认值
func (h *CraftHandler) Batch(c *gin.Context) {
	var req struct {
		BomNumber string `json:"bom_number"`
		Quantity  int    `json:"quantity"`
	}
	c.ShouldBindJSON(&req)

	var codes []string
	if req.BomNumber != "" {
		codes = []string{req.BomNumber}
	}
	batch, err := h.svc.EvaluateBatch(c.Request.Context(), codes, req.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": batch})
}

// Latest 最近一次批量评估的缓存结果
func (h *CraftHandler) Latest(c *gin.Context) {
	batch, err := h.svc.CachedBatch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	if batch == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "没有批量评估缓存"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": batch})
}

func (h *CraftHandler) ListNonCraftable(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	goods, total, err := h.svc.ListNonCraftable(repository.NonCraftableListParams{
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": goods, "total": total, "page": page, "size": size}})
}
