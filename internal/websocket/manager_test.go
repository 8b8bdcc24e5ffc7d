package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"notes-publisher/internal/domain"
	"notes-publisher/internal/logging"
)

func newTestManager(t *testing.T, maxClients int) (*Manager, context.CancelFunc) {
	m := NewManager(maxClients, time.Second, time.Minute, time.Minute, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	t.Cleanup(cancel)
	return m, cancel
}

func waitForClients(t *testing.T, m *Manager, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, m.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid message: %v", err)
		}
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestManager_NoteCreatedBroadcast(t *testing.T) {
	m, _ := newTestManager(t, 0)

	a := NewClient("a", nil, m)
	b := NewClient("b", nil, m)
	m.Connect(a)
	m.Connect(b)
	waitForClients(t, m, 2)

	note := &domain.Note{ID: "n1", Title: "Hello", Content: "hidden", CreatedAt: time.Now().UTC()}
	if err := m.NoteCreated(note); err != nil {
		t.Fatalf("NoteCreated() unexpected error = %v", err)
	}

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		if msg.Type != TypeNoteCreated {
			t.Errorf("expected note_created, got %s", msg.Type)
		}
		var payload NoteCreatedPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.NoteID != "n1" || payload.Title != "Hello" {
			t.Errorf("unexpected payload %+v", payload)
		}
		var raw map[string]any
		json.Unmarshal(msg.Payload, &raw)
		if _, leaked := raw["content"]; leaked {
			t.Error("note content must not be broadcast")
		}
	}
}

func TestManager_PingPong(t *testing.T) {
	m, _ := newTestManager(t, 0)

	c := NewClient("c", nil, m)
	m.Connect(c)
	waitForClients(t, m, 1)

	ping, _ := NewMessage(TypePing, nil)
	data, _ := json.Marshal(ping)
	m.forward(&ClientMessage{Client: c, Message: data})

	if msg := receive(t, c); msg.Type != TypePong {
		t.Errorf("expected pong, got %s", msg.Type)
	}
}

func TestManager_MaxClients(t *testing.T) {
	m, _ := newTestManager(t, 1)

	first := NewClient("first", nil, m)
	second := NewClient("second", nil, m)
	m.Connect(first)
	m.Connect(second)

	select {
	case _, ok := <-second.Send:
		if ok {
			t.Fatal("expected rejected client's channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected rejected client to be closed")
	}

	waitForClients(t, m, 1)
}

func TestManager_StopClosesClients(t *testing.T) {
	m, cancel := newTestManager(t, 0)

	c := NewClient("c", nil, m)
	m.Connect(c)
	waitForClients(t, m, 1)

	cancel()

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected client to be closed on shutdown")
	}

	if m.Connect(NewClient("late", nil, m)) {
		t.Error("expected Connect to fail after shutdown")
	}
}
