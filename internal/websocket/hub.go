package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	"github.com/xenn00/chat-core/internal/presence"
	"github.com/xenn00/chat-core/internal/pubsub"
)

const presencePublishTimeout = 2 * time.Second

// Hub tracks open sessions and the topics they listen to. Payloads reach it
// through Deliver, normally wired as the pub/sub bus handler.
type Hub struct {
	// Topic subscriptions
	topics map[string]map[*Client]struct{}
	mu     sync.RWMutex

	// User tracking
	userClients map[int64][]*Client
	userMu      sync.RWMutex

	// presenceGen counts online/offline transitions and is guarded by
	// userMu. Presence broadcasts carry the generation they were taken at
	// and an older one is never published after a newer one.
	presenceGen   uint64
	broadcastMu   sync.Mutex
	broadcastGen  uint64
	broadcastSent bool

	Presence *presence.Registry
	Bus      pubsub.Publisher

	// Hub lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	stats   HubStats
	statsMu sync.RWMutex

	// Cleanup
	cleanupTicker     *time.Ticker
	InactiveThreshold time.Duration
}

type HubStats struct {
	TotalTopics      int       `json:"total_topics"`
	TotalClients     int       `json:"total_clients"`
	OnlineUsers      int       `json:"online_users"`
	TotalConnections int64     `json:"total_connections"`
	MessageSent      int64     `json:"message_sent"`
	MessageDropped   int64     `json:"message_dropped"`
	LastReset        time.Time `json:"last_reset"`
}

func NewHub(registry *presence.Registry, bus pubsub.Publisher) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		topics:      make(map[string]map[*Client]struct{}),
		userClients: make(map[int64][]*Client),
		Presence:    registry,
		Bus:         bus,
		ctx:         ctx,
		cancel:      cancel,
		stats: HubStats{
			LastReset: time.Now(),
		},
		cleanupTicker:     time.NewTicker(1 * time.Minute),
		InactiveThreshold: 2 * time.Minute,
	}

	// Start cleanup routine
	go hub.cleanupRoutine()

	return hub
}

// Register attaches the client to its user's notification topic and the
// presence topic, then starts its pumps. The first session of a user marks
// the user online.
func (h *Hub) Register(client *Client) {
	h.userMu.Lock()
	first := len(h.userClients[client.UserID]) == 0
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	h.Presence.Connect(client.User)
	if first {
		h.presenceGen++
	}
	h.userMu.Unlock()

	h.Subscribe(client, pubsub.UserTopic(client.UserID))
	h.Subscribe(client, pubsub.PresenceTopic)

	h.updateStats(func(stats *HubStats) {
		stats.TotalConnections++
	})

	client.start(h)

	if first {
		h.BroadcastOnlineUsers()
	}

	log.Info().Str("clientID", client.ID).Int64("userID", client.UserID).Bool("firstSession", first).Msg("ws: client registered")
}

// Unregister detaches the client from every topic. The last session of a
// user marks the user offline. Calling it twice is harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	for topic := range client.topics {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	clear(client.topics)
	h.mu.Unlock()

	h.userMu.Lock()
	removed := false
	clients := h.userClients[client.UserID]
	for i, c := range clients {
		if c == client {
			h.userClients[client.UserID] = append(clients[:i:i], clients[i+1:]...)
			removed = true
			break
		}
	}
	last := removed && len(h.userClients[client.UserID]) == 0
	if last {
		delete(h.userClients, client.UserID)
		h.Presence.Disconnect(client.UserID)
		h.presenceGen++
	}
	h.userMu.Unlock()

	if !removed {
		return
	}
	if last {
		h.BroadcastOnlineUsers()
	}

	log.Info().Str("clientID", client.ID).Int64("userID", client.UserID).Bool("lastSession", last).Msg("ws: client unregistered")
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
	client.topics[topic] = struct{}{}
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)
}

// Deliver hands payload to every local subscriber of topic. Targets are
// snapshotted under the read lock and written to outside of it.
func (h *Hub) Deliver(topic string, payload []byte) {
	h.mu.RLock()
	subs := h.topics[topic]
	targets := make([]*Client, 0, len(subs))
	for client := range subs {
		if client.IsClientActive() {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var sent, dropped int64
	for _, client := range targets {
		if client.trySend(payload) {
			sent++
		} else {
			dropped++
		}
	}

	h.updateStats(func(stats *HubStats) {
		stats.MessageSent += sent
		stats.MessageDropped += dropped
	})

	log.Debug().Str("topic", topic).Int("targets", len(targets)).Msg("ws: delivered")
}

// SendToClient writes an event straight to one session.
func (h *Hub) SendToClient(client *Client, eventType, topic string, data any) {
	payload, ok := encodeFrame(eventType, topic, data)
	if !ok {
		return
	}
	client.trySend(payload)
}

// BroadcastOnlineUsers publishes the presence snapshot on the presence topic.
func (h *Hub) BroadcastOnlineUsers() {
	h.publishPresence(h.presenceSnapshot())
}

type presenceSnapshot struct {
	gen   uint64
	users []user_dto.PublicUser
}

func (h *Hub) presenceSnapshot() presenceSnapshot {
	h.userMu.RLock()
	defer h.userMu.RUnlock()
	return presenceSnapshot{gen: h.presenceGen, users: h.Presence.ListOnline()}
}

// publishPresence reports whether snap was published. A snapshot older than
// the last published one is skipped.
func (h *Hub) publishPresence(snap presenceSnapshot) bool {
	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()

	if h.broadcastSent && snap.gen < h.broadcastGen {
		log.Debug().Uint64("gen", snap.gen).Uint64("published", h.broadcastGen).Msg("ws: skipping stale online users")
		return false
	}

	payload, ok := encodeFrame(chat_dto.EventOnlineUsers, pubsub.PresenceTopic, snap.users)
	if !ok {
		return false
	}
	h.broadcastGen, h.broadcastSent = snap.gen, true

	ctx, cancel := context.WithTimeout(h.ctx, presencePublishTimeout)
	defer cancel()
	if err := h.Bus.Publish(ctx, pubsub.PresenceTopic, payload); err != nil {
		log.Warn().Err(err).Msg("ws: failed to publish online users")
	}
	return true
}

// Utility methods

// IsUserOnline checks if a user has any active connection on this node
func (h *Hub) IsUserOnline(userID int64) bool {
	return len(h.GetUserClients(userID)) > 0
}

// GetUserClients returns all active clients for a user
func (h *Hub) GetUserClients(userID int64) []*Client {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	var activeClients []*Client
	for _, client := range h.userClients[userID] {
		if client.IsClientActive() {
			activeClients = append(activeClients, client)
		}
	}

	return activeClients
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) ClientCount() int {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	total := 0
	for _, clients := range h.userClients {
		total += len(clients)
	}
	return total
}

// GetHubStats returns overall hub statistics
func (h *Hub) GetHubStats() HubStats {
	h.mu.RLock()
	topics := len(h.topics)
	h.mu.RUnlock()

	clients := h.ClientCount()

	h.statsMu.RLock()
	defer h.statsMu.RUnlock()

	stats := h.stats
	stats.TotalTopics = topics
	stats.TotalClients = clients
	stats.OnlineUsers = h.Presence.Len()
	return stats
}

func (h *Hub) updateStats(fn func(*HubStats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}

func (h *Hub) cleanupRoutine() {
	defer h.cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.cleanupTicker.C:
			h.performCleanup()
		}
	}
}

func (h *Hub) performCleanup() {
	now := time.Now()

	var toRemove []*Client
	h.userMu.RLock()
	for _, clients := range h.userClients {
		for _, client := range clients {
			if !client.IsClientActive() || now.Sub(client.GetLastSeen()) > h.InactiveThreshold {
				toRemove = append(toRemove, client)
			}
		}
	}
	h.userMu.RUnlock()

	for _, client := range toRemove {
		log.Info().Str("clientID", client.ID).Int64("userID", client.UserID).Msg("ws: cleaning up inactive client")
		client.Close()
	}

	log.Debug().Int("cleaned", len(toRemove)).Msg("ws: cleanup routine completed")
}

// Close gracefully shuts down the hub and empties the presence registry.
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	h.userMu.RLock()
	var allClients []*Client
	for _, clients := range h.userClients {
		allClients = append(allClients, clients...)
	}
	h.userMu.RUnlock()

	for _, client := range allClients {
		client.Close()
	}
	h.Presence.Close()

	log.Info().Int("clients", len(allClients)).Msg("ws: hub shutdown completed")
}
