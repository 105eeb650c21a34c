package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chansync/backend/internal/application/sync"
	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/chansync/backend/internal/interfaces/http/dto"
)

// BatchHandler exposes the batch request lifecycle: opening batches, listing
// them, feeding remote responses into reconciliation and polling asynchronous
// handles.
type BatchHandler struct {
	BaseHandler
	lifecycle    *sync.LifecycleController
	engine       *sync.Engine
	orchestrator *sync.Orchestrator
	batches      batch.Repository
	channels     channel.Repository
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(
	lifecycle *sync.LifecycleController,
	engine *sync.Engine,
	orchestrator *sync.Orchestrator,
	batches batch.Repository,
	channels channel.Repository,
) *BatchHandler {
	return &BatchHandler{
		lifecycle:    lifecycle,
		engine:       engine,
		orchestrator: orchestrator,
		batches:      batches,
		channels:     channels,
	}
}

// RegisterRoutes registers batch routes under the channel scope
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/channels/:channelID/batches")
	{
		batches.POST("", h.Create)
		batches.GET("", h.List)
		batches.GET("/:id", h.Get)
		batches.POST("/:id/response", h.SubmitResponse)
		batches.POST("/:id/poll", h.Poll)
	}
}

// Create opens a new batch request in initialized state
func (h *BatchHandler) Create(c *gin.Context) {
	channelID, ok := getChannelID(c)
	if !ok {
		h.BadRequest(c, "Invalid channel ID")
		return
	}

	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	contentType := channel.ContentType(req.ContentType)
	if !contentType.IsValid() {
		h.BadRequest(c, "Invalid content type: "+req.ContentType)
		return
	}

	if _, err := h.channels.FindByID(c.Request.Context(), channelID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "Channel not found")
			return
		}
		h.Internal(c, "Failed to load channel")
		return
	}

	b, err := h.lifecycle.Create(c.Request.Context(), channelID, contentType)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	h.Created(c, dto.NewBatchResponse(b))
}

// List returns the channel's batch requests, newest first
func (h *BatchHandler) List(c *gin.Context) {
	channelID, ok := getChannelID(c)
	if !ok {
		h.BadRequest(c, "Invalid channel ID")
		return
	}

	var req dto.ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := batch.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := batch.Status(req.Status)
		filter.Status = &status
	}
	if req.ContentType != "" {
		filter.ContentType = &req.ContentType
	}

	items, total, err := h.batches.FindAll(c.Request.Context(), channelID, filter)
	if err != nil {
		h.Internal(c, "Failed to list batch requests")
		return
	}

	responses := make([]dto.BatchResponse, 0, len(items))
	for i := range items {
		responses = append(responses, dto.NewBatchResponse(&items[i]))
	}
	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Get returns one batch request by id
func (h *BatchHandler) Get(c *gin.Context) {
	b, ok := h.loadBatch(c)
	if !ok {
		return
	}
	h.Success(c, dto.NewBatchResponse(b))
}

// SubmitResponse feeds a remote channel's batch response into the
// reconciliation engine. The upsert operation correlates by business key;
// the delete operation correlates by remote id and prunes the ledger.
func (h *BatchHandler) SubmitResponse(c *gin.Context) {
	b, ok := h.loadBatch(c)
	if !ok {
		return
	}

	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var (
		status batch.Status
		err    error
	)
	if req.Operation == dto.ReconcileOperationDelete {
		status, err = h.engine.ReconcileDeletions(c.Request.Context(), b, req.ToDomain())
	} else {
		status, err = h.engine.Reconcile(c.Request.Context(), b, req.ToDomain())
	}
	if err != nil {
		if errors.Is(err, sync.ErrUnknownContentType) {
			h.UnprocessableEntity(c, dto.ErrCodeInvalidState, err.Error())
			return
		}
		h.handleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"status": string(status), "batch": dto.NewBatchResponse(b)})
}

// Poll checks the remote handle of an asynchronous batch
func (h *BatchHandler) Poll(c *gin.Context) {
	b, ok := h.loadBatch(c)
	if !ok {
		return
	}

	ch, err := h.channels.FindByID(c.Request.Context(), b.ChannelID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "Channel not found")
			return
		}
		h.Internal(c, "Failed to load channel")
		return
	}

	status, err := h.orchestrator.Poll(c.Request.Context(), ch, b)
	if err != nil {
		h.handleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"status": string(status), "batch": dto.NewBatchResponse(b)})
}

// loadBatch resolves the :id parameter to a batch owned by the :channelID
// channel. Batches of other channels are reported as not found rather than
// forbidden, so ids cannot be probed across channels.
func (h *BatchHandler) loadBatch(c *gin.Context) (*batch.BatchRequest, bool) {
	channelID, ok := getChannelID(c)
	if !ok {
		h.BadRequest(c, "Invalid channel ID")
		return nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return nil, false
	}

	b, err := h.batches.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "Batch request not found")
			return nil, false
		}
		h.Internal(c, "Failed to load batch request")
		return nil, false
	}
	if b.ChannelID != channelID {
		h.NotFound(c, "Batch request not found")
		return nil, false
	}
	return b, true
}

// handleDomainError maps domain errors onto HTTP responses
func (h *BatchHandler) handleDomainError(c *gin.Context, err error) {
	if errors.Is(err, batch.ErrAlreadyFinalized) {
		h.Conflict(c, err.Error())
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case "NOT_FOUND":
			h.NotFound(c, domainErr.Message)
		case "INVALID_STATE":
			h.UnprocessableEntity(c, dto.ErrCodeInvalidState, domainErr.Message)
		default:
			h.BadRequest(c, domainErr.Message)
		}
		return
	}
	h.Internal(c, err.Error())
}
