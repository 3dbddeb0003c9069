package handlers

import (
	"fmt"

	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub        HubInterface
	podService PodServiceInterface
}

func NewSSEHandler(hub HubInterface, podService PodServiceInterface) *SSEHandler {
	return &SSEHandler{
		hub:        hub,
		podService: podService,
	}
}

// Connect opens an event stream with no subscriptions. The client adds pods
// with Subscribe using the client_id from the first event.
func (h *SSEHandler) Connect(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	h.stream(c, a, map[string]bool{})
}

// ConnectPod opens an event stream already subscribed to one pod.
func (h *SSEHandler) ConnectPod(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	podID := c.Param("id")
	if _, err := h.podService.Get(c.Request.Context(), a, podID); err != nil {
		respondError(c, err, "failed to load pod")
		return
	}

	h.stream(c, a, map[string]bool{podID: true})
}

func (h *SSEHandler) stream(c *drift.Context, a session.Actor, pods map[string]bool) {
	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:      clientID,
		AdminID: a.Admin().ID,
		Pods:    pods,
		Send:    make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *SSEHandler) Subscribe(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

	podID := c.Param("podId")
	if _, err := h.podService.Get(c.Request.Context(), a, podID); err != nil {
		respondError(c, err, "failed to load pod")
		return
	}

	if !h.hub.Subscribe(clientID, a.Admin().ID, podID) {
		c.NotFound("event client not found")
		return
	}

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("subscribed to pod %s", podID),
	})
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

	podID := c.Param("podId")
	if !h.hub.Unsubscribe(clientID, a.Admin().ID, podID) {
		c.NotFound("event client not found")
		return
	}

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("unsubscribed from pod %s", podID),
	})
}
