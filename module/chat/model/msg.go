package model

import "time"

// Collection names.
const (
	CollMessage = "message"
	CollRoom    = "room"
)

// Message is the persisted record. The message id doubles as the idempotency
// key: when a client supplies its own msgId it becomes the _id, so a retried
// queue entry trips the unique index instead of inserting twice.
type Message struct {
	ID        string    `bson:"_id"        json:"id"`
	RoomID    string    `bson:"room_id"    json:"roomId"`
	SenderID  string    `bson:"sender_id"  json:"senderId"`
	Body      string    `bson:"body"       json:"body"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Room is the minimal room document. Room CRUD lives in the API service;
// the gateway only seeds the default room and reads for history.
type Room struct {
	ID        string    `bson:"_id"        json:"id"`
	Name      string    `bson:"name"       json:"name"`
	IsPublic  bool      `bson:"is_public"  json:"isPublic"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// OutboundMessage is the queue entry pushed by the gateway and popped by the
// worker. Field names are the wire contract of the `queue:messages` list.
type OutboundMessage struct {
	MsgID          string         `json:"msgId"`
	RoomID         string         `json:"roomId"`
	ClientSenderID string         `json:"clientSenderId"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata"`
	SentAt         time.Time      `json:"sentAt"`
}

// Envelope is published verbatim from the persisted record onto the room
// channel and consumed by every subscribed gateway.
type Envelope struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
