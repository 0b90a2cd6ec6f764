package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/engine"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/service"
)

type PlanHandler struct {
	svc *service.PlanService
}

func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// Plan 预留库存。缺料时返回完整缺料清单，不做任何写入
func (h *PlanHandler) Plan(c *gin.Context) {
	var req struct {
		BomNumber string `json:"bom_number" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	userName, _ := c.Get("user_name")
	actor, _ := userName.(string)

	result, err := h.svc.Plan(req.BomNumber, req.Quantity, actor)
	var shortErr *engine.ShortageError
	if errors.As(err, &shortErr) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": shortErr.Error(), "data": gin.H{"missing_items": shortErr.Missing}})
		return
	}
	if errors.Is(err, service.ErrBomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
		return
	}
	if errors.Is(err, engine.ErrInvalidQuantity) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": result})
}

// RollbackAll 撤销全部预留
func (h *PlanHandler) RollbackAll(c *gin.Context) {
	restored, err := h.svc.RollbackAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"restored_items": restored}})
}

// Finalize 装配确认
func (h *PlanHandler) Finalize(c *gin.Context) {
	var req struct {
		BomNumber string  `json:"bom_number" binding:"required"`
		Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	userName, _ := c.Get("user_name")
	actor, _ := userName.(string)

	log, err := h.svc.Finalize(req.BomNumber, req.Quantity, actor)
	if errors.Is(err, service.ErrInvalidActor) || errors.Is(err, engine.ErrInvalidQuantity) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": log})
}

// Approve 计划品审批
func (h *PlanHandler) Approve(c *gin.Context) {
	bomNumber := c.Param("bom_number")
	err := h.svc.Approve(bomNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "计划品不存在"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *PlanHandler) ListPlanned(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.PlannedListParams{
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    size,
	}
	if raw := c.Query("approved"); raw != "" {
		approved := raw == "true"
		params.Approved = &approved
	}
	goods, total, err := h.svc.ListPlanned(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": goods, "total": total, "page": page, "size": size}})
}

func (h *PlanHandler) ListAllocations(c *gin.Context) {
	entries, err := h.svc.ListAllocations(c.Query("bom_number"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": entries})
}

func (h *PlanHandler) ListAssemblyLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	logs, total, err := h.svc.ListAssemblyLogs(c.Query("bom_number"), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": logs, "total": total, "page": page, "size": size}})
}
