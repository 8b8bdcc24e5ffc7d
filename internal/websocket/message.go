package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeNoteCreated MessageType = "note_created"
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NoteCreatedPayload deliberately omits content; readers fetch the note and
// go through the visibility gate like any other request.
type NoteCreatedPayload struct {
	NoteID    string    `json:"note_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
