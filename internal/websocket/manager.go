package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"notes-publisher/internal/domain"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager fans note events out to every connected feed client.
type Manager struct {
	clients       map[string]*Client
	clientsMutex  sync.RWMutex
	Register      chan *Client
	Unregister    chan *Client
	HandleMessage chan *ClientMessage
	done          chan struct{}
	maxClients    int
	writeWait     time.Duration
	pongWait      time.Duration
	pingPeriod    time.Duration
	logger        *slog.Logger
}

func NewManager(maxClients int, writeWait, pongWait, pingPeriod time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		clients:       make(map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		HandleMessage: make(chan *ClientMessage),
		done:          make(chan struct{}),
		maxClients:    maxClients,
		writeWait:     writeWait,
		pongWait:      pongWait,
		pingPeriod:    pingPeriod,
		logger:        logger,
	}
}

// Run processes registrations and client messages until ctx is cancelled,
// then disconnects every client.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)

		case <-ctx.Done():
			m.closeAll()
			return
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.maxClients > 0 && len(m.clients) >= m.maxClients {
		m.logger.Warn("feed client limit reached", "client", client.ID, "max", m.maxClients)
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.logger.Debug("feed client registered", "client", client.ID, "clients", len(m.clients))
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		close(client.Send)
		m.logger.Debug("feed client unregistered", "client", client.ID)
	}
}

func (m *Manager) closeAll() {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for id, client := range m.clients {
		delete(m.clients, id)
		close(client.Send)
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Debug("ignoring malformed feed message", "client", clientMsg.Client.ID, "error", err)
		return
	}

	if msg.Type != TypePing {
		return
	}

	pong, err := NewMessage(TypePong, nil)
	if err != nil {
		return
	}
	m.SendToClient(clientMsg.Client.ID, pong)
}

// Broadcast queues message for every client. Clients whose buffer is full
// are dropped.
func (m *Manager) Broadcast(message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var slow []*Client

	m.clientsMutex.RLock()
	for _, client := range m.clients {
		select {
		case client.Send <- messageBytes:
		default:
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		m.logger.Warn("feed client send buffer full, closing connection", "client", client.ID)
		go m.unregister(client)
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		m.logger.Warn("feed client send buffer full", "client", clientID)
	}

	return nil
}

// NoteCreated announces a persisted note to all feed clients.
func (m *Manager) NoteCreated(note *domain.Note) error {
	msg, err := NewMessage(TypeNoteCreated, &NoteCreatedPayload{
		NoteID:    note.ID,
		Title:     note.Title,
		CreatedAt: note.CreatedAt,
	})
	if err != nil {
		return err
	}

	return m.Broadcast(msg)
}

func (m *Manager) ClientCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	return len(m.clients)
}

func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) forward(msg *ClientMessage) bool {
	select {
	case m.HandleMessage <- msg:
		return true
	case <-m.done:
		return false
	}
}

// Connect hands client to the run loop. It reports false once the manager
// has stopped.
func (m *Manager) Connect(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}
