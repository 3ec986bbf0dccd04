package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/service"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

type reconcileRequest struct {
	Snapshot domain.Snapshot  `json:"snapshot"`
	Delta    domain.EditDelta `json:"delta"`
}

func (h *InventoryHandler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.service.GetSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch inventory")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     snapshot,
		"low_stock": snapshot.LowStock(),
	})
}

// Reconcile applies the caller's delta. Per-operation failures are part of the
// report; the status is 200 when everything applied and 207 otherwise.
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := domain.DecodeStrict(c.Request.Body, &req); err != nil {
		respondError(c, asBadRequest(err), "invalid reconcile request")
		return
	}

	report := h.service.ApplyDelta(c.Request.Context(), req.Snapshot, req.Delta)
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, report)
}

func (h *InventoryHandler) AddItem(c *gin.Context) {
	var patch domain.ItemPatch
	if err := domain.DecodeStrict(c.Request.Body, &patch); err != nil {
		respondError(c, asBadRequest(err), "invalid item")
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err, "failed to add item")
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch low stock items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *InventoryHandler) Dashboard(c *gin.Context) {
	summary, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch dashboard")
		return
	}

	c.JSON(http.StatusOK, summary)
}
