package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"quarterdeck/internal/events"
)

// EventsHandler streams change notifications to dashboard sessions over SSE.
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles an SSE subscription
// @Summary     Subscribe to change events
// @Description Server-sent event stream of change notifications. Each event
// @Description names the resource category and id that changed; clients
// @Description refetch the affected lists rather than trusting a pushed
// @Description payload. A client that falls behind is disconnected and
// @Description should reconnect and refetch everything.
// @Tags        events
// @Produce     text/event-stream
// @Security    BearerAuth
// @Success     200 {string} string "event: change"
// @Router      /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				// Dropped by the hub for falling behind.
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
