package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dimitrije/pod-console/internal/metrics"
)

// Event kinds sent to pod subscribers.
const (
	PodCreated       = "pod_created"
	PodUpdated       = "pod_updated"
	PodDeleted       = "pod_deleted"
	PodRestored      = "pod_restored"
	PodPurged        = "pod_purged"
	LicensesChanged  = "licenses_changed"
	MembersChanged   = "members_changed"
	InterviewDeleted = "interview_deleted"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// PodChangedEvent tells open dashboards to refetch a pod. The console never
// pushes pod state itself; the upstream stays the source of truth.
type PodChangedEvent struct {
	PodID     string    `json:"pod_id"`
	Kind      string    `json:"kind"`
	ChangedBy string    `json:"changed_by"`
	At        time.Time `json:"at"`
}

type Client struct {
	ID      string
	AdminID string
	Pods    map[string]bool
	Send    chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *PodMessage
	mu         sync.RWMutex
}

// PodMessage is delivered to every client subscribed to any of PodIDs.
type PodMessage struct {
	PodIDs []string
	Event  Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *PodMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			metrics.SSEConnected()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				metrics.SSEDisconnected()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if !client.subscribed(msg.PodIDs) {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (c *Client) subscribed(podIDs []string) bool {
	for _, id := range podIDs {
		if c.Pods[id] {
			return true
		}
	}
	return false
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds podID to a connected client. It reports false for an
// unknown client or one owned by another admin.
func (h *Hub) Subscribe(clientID, adminID, podID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.AdminID != adminID {
		return false
	}
	client.Pods[podID] = true
	return true
}

func (h *Hub) Unsubscribe(clientID, adminID, podID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.AdminID != adminID {
		return false
	}
	delete(client.Pods, podID)
	return true
}

// BroadcastPodChange notifies subscribers of podID and of any extra pods
// whose views include it, typically the parent whose child list changed.
func (h *Hub) BroadcastPodChange(kind, podID, changedBy string, alsoNotify ...string) {
	ids := append([]string{podID}, alsoNotify...)
	h.broadcast <- &PodMessage{
		PodIDs: ids,
		Event: Event{
			Type: kind,
			Data: PodChangedEvent{
				PodID:     podID,
				Kind:      kind,
				ChangedBy: changedBy,
				At:        time.Now().UTC(),
			},
		},
	}
}
