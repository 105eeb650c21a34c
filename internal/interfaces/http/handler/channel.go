package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/chansync/backend/internal/interfaces/http/dto"
)

// ChannelHandler manages the marketplace channel registry
type ChannelHandler struct {
	BaseHandler
	channels channel.Repository
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(channels channel.Repository) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

// RegisterRoutes registers channel routes
func (h *ChannelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	channels := rg.Group("/channels")
	{
		channels.POST("", h.Create)
		channels.GET("", h.List)
		channels.GET("/:channelID", h.Get)
	}
}

// Create registers a new channel
func (h *ChannelHandler) Create(c *gin.Context) {
	var req dto.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if existing, err := h.channels.FindByCode(c.Request.Context(), req.Code); err == nil && existing != nil {
		h.Conflict(c, "Channel code already in use")
		return
	}

	ch, err := channel.NewChannel(req.Name, req.Code)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Conf != nil {
		ch.Conf = req.Conf
	}

	if err := h.channels.Save(c.Request.Context(), ch); err != nil {
		h.Internal(c, "Failed to save channel")
		return
	}

	h.Created(c, dto.NewChannelResponse(ch))
}

// List returns all active channels
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.channels.FindActive(c.Request.Context())
	if err != nil {
		h.Internal(c, "Failed to list channels")
		return
	}

	responses := make([]dto.ChannelResponse, 0, len(channels))
	for i := range channels {
		responses = append(responses, dto.NewChannelResponse(&channels[i]))
	}
	h.Success(c, responses)
}

// Get returns one channel by id
func (h *ChannelHandler) Get(c *gin.Context) {
	channelID, ok := getChannelID(c)
	if !ok {
		h.BadRequest(c, "Invalid channel ID")
		return
	}

	ch, err := h.channels.FindByID(c.Request.Context(), channelID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "Channel not found")
			return
		}
		h.Internal(c, "Failed to load channel")
		return
	}

	h.Success(c, dto.NewChannelResponse(ch))
}
