package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/lot-ledger/internal/adapter/handler/rpc"
	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/core/service"
)

const idempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(inventory *service.InventoryService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{inventory: inventory, logger: logger}
}

// Router returns a gin engine with every inventory route registered.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r)
	return r
}

func (h *HTTPHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.GET("/inventory", h.Inventory)
	api.POST("/inventory/add", h.Add)
	api.POST("/inventory/remove", h.Remove)
	api.POST("/inventory/adjust", h.Adjust)
	api.GET("/items/:item", h.Lookup)
	api.GET("/items/:item/lots", h.LotsFor)
	api.GET("/items/:item/lots/:lot", h.LotInfo)
	api.GET("/history", h.History)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Add(c *gin.Context) {
	var req rpc.AddRequest
	if !h.bind(c, &req, &req.RequestID, &req.Username) {
		return
	}

	cmd, err := req.Command()
	if err != nil {
		h.respondError(c, err)
		return
	}

	mv, err := h.inventory.Add(c.Request.Context(), cmd)
	h.respondMovement(c, mv, err)
}

func (h *HTTPHandler) Remove(c *gin.Context) {
	var req rpc.RemoveRequest
	if !h.bind(c, &req, &req.RequestID, &req.Username) {
		return
	}

	cmd, err := req.Command()
	if err != nil {
		h.respondError(c, err)
		return
	}

	mv, err := h.inventory.Remove(c.Request.Context(), cmd)
	h.respondMovement(c, mv, err)
}

func (h *HTTPHandler) Adjust(c *gin.Context) {
	var req rpc.AdjustRequest
	if !h.bind(c, &req, &req.RequestID, &req.Username) {
		return
	}

	cmd, err := req.Command()
	if err != nil {
		h.respondError(c, err)
		return
	}

	mv, err := h.inventory.Adjust(c.Request.Context(), cmd)
	h.respondMovement(c, mv, err)
}

func (h *HTTPHandler) Lookup(c *gin.Context) {
	lot, err := h.inventory.Lookup(c.Request.Context(), c.Param("item"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusOK, rpc.LookupResponse{Found: false})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	msg := rpc.FromLot(*lot)
	c.JSON(http.StatusOK, rpc.LookupResponse{Found: true, Lot: &msg})
}

func (h *HTTPHandler) LotsFor(c *gin.Context) {
	lots, err := h.inventory.LotsFor(c.Request.Context(), c.Param("item"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rpc.LotsResponse{Lots: lots})
}

func (h *HTTPHandler) LotInfo(c *gin.Context) {
	key := domain.LotKey{ItemNumber: c.Param("item"), Lot: c.Param("lot")}
	lot, err := h.inventory.LotInfo(c.Request.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusOK, rpc.LotInfoResponse{Found: false})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rpc.LotInfoResponse{Found: true, Quantity: lot.Quantity, Unit: lot.Unit})
}

func (h *HTTPHandler) Inventory(c *gin.Context) {
	lots, err := h.inventory.Inventory(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rpc.InventoryResponse{Lots: rpc.FromLots(lots)})
}

func (h *HTTPHandler) History(c *gin.Context) {
	entries, err := h.inventory.History(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rpc.HistoryResponse{Entries: rpc.FromEntries(entries)})
}

// bind decodes the body into req. requestID and username point into req; a
// missing request id falls back to the Idempotency-Key header.
func (h *HTTPHandler) bind(c *gin.Context, req any, requestID, username *string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	if strings.TrimSpace(*username) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username is required"})
		return false
	}
	if *requestID == "" {
		*requestID = c.GetHeader(idempotencyHeader)
	}
	return true
}

func (h *HTTPHandler) respondMovement(c *gin.Context, mv *domain.Movement, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rpc.FromMovement(mv))
}

func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(code, ErrorResponse{Error: publicMessage(err)})
}
