package chat

import (
	"encoding/json"
	"time"

	"RoomRelay/module/chat/model"
	"RoomRelay/tools/decode"
	"RoomRelay/tools/errs"
)

// Wire protocol: JSON objects tagged by a `type` field. Inbound frames are
// decoded exactly once, here, into one of the typed variants below; past this
// boundary nothing dispatches on raw strings.

type FrameType string

const (
	FrameAuth        FrameType = "auth"
	FrameJoinRoom    FrameType = "join-room"
	FrameLeaveRoom   FrameType = "leave-room"
	FrameSendMessage FrameType = "send-message"
)

// Outbound frame tags.
const (
	typeAuthSuccess        = "auth-success"
	typeJoinRoomSuccess    = "join-room-success"
	typeLeaveRoomSuccess   = "leave-room-success"
	typeSendMessageSuccess = "send-message-success"
	typeMessage            = "message"
	typeError              = "error"
)

type Frame interface {
	FrameType() FrameType
}

type AuthFrame struct {
	Token string `json:"token"`
}

func (*AuthFrame) FrameType() FrameType { return FrameAuth }

type JoinRoomFrame struct {
	RoomID string `json:"roomId"`
}

func (*JoinRoomFrame) FrameType() FrameType { return FrameJoinRoom }

type LeaveRoomFrame struct {
	RoomID string `json:"roomId"`
}

func (*LeaveRoomFrame) FrameType() FrameType { return FrameLeaveRoom }

type SendMessageFrame struct {
	RoomID   string         `json:"roomId"`
	Content  string         `json:"content"`
	MsgID    string         `json:"msgId"`
	Metadata map[string]any `json:"metadata"`
}

func (*SendMessageFrame) FrameType() FrameType { return FrameSendMessage }

// ParseFrame decodes and validates one inbound frame. Every failure is an
// errs.ErrProtocol; the connection is never closed for a bad frame.
func ParseFrame(raw []byte) (Frame, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.ErrProtocol.WithDetail("unparsable frame")
	}
	t, _ := m["type"].(string)

	switch FrameType(t) {
	case FrameAuth:
		f, err := decode.DecodeMap[AuthFrame](m)
		if err != nil {
			return nil, errs.ErrProtocol.WithDetail(err.Error())
		}
		if f.Token == "" {
			return nil, errs.ErrProtocol.WithDetail("token missing")
		}
		return f, nil
	case FrameJoinRoom:
		f, err := decode.DecodeMap[JoinRoomFrame](m)
		if err != nil {
			return nil, errs.ErrProtocol.WithDetail(err.Error())
		}
		if f.RoomID == "" {
			return nil, errs.ErrProtocol.WithDetail("roomId missing")
		}
		return f, nil
	case FrameLeaveRoom:
		f, err := decode.DecodeMap[LeaveRoomFrame](m)
		if err != nil {
			return nil, errs.ErrProtocol.WithDetail(err.Error())
		}
		if f.RoomID == "" {
			return nil, errs.ErrProtocol.WithDetail("roomId missing")
		}
		return f, nil
	case FrameSendMessage:
		f, err := decode.DecodeMap[SendMessageFrame](m)
		if err != nil {
			return nil, errs.ErrProtocol.WithDetail(err.Error())
		}
		if f.RoomID == "" || f.Content == "" {
			return nil, errs.ErrProtocol.WithDetail("roomId or content missing")
		}
		return f, nil
	default:
		return nil, errs.ErrProtocol.WithDetail("unknown frame type")
	}
}

// ---- Server reply builders ----

type authSuccess struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type roomSuccess struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type sendMessageSuccess struct {
	Type        string    `json:"type"`
	ClientMsgID string    `json:"clientMsgId,omitempty"`
	ServerMsgID string    `json:"serverMsgId"`
	SentAt      time.Time `json:"sentAt"`
}

type messageFrame struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func BuildAuthSuccess(userID string) []byte {
	b, _ := json.Marshal(authSuccess{Type: typeAuthSuccess, Message: userID})
	return b
}

func BuildJoinRoomSuccess(roomID string) []byte {
	b, _ := json.Marshal(roomSuccess{Type: typeJoinRoomSuccess, RoomID: roomID})
	return b
}

func BuildLeaveRoomSuccess(roomID string) []byte {
	b, _ := json.Marshal(roomSuccess{Type: typeLeaveRoomSuccess, RoomID: roomID})
	return b
}

func BuildSendMessageSuccess(clientMsgID, serverMsgID string, sentAt time.Time) []byte {
	b, _ := json.Marshal(sendMessageSuccess{
		Type:        typeSendMessageSuccess,
		ClientMsgID: clientMsgID,
		ServerMsgID: serverMsgID,
		SentAt:      sentAt,
	})
	return b
}

func BuildMessage(env *model.Envelope) []byte {
	b, _ := json.Marshal(messageFrame{
		Type:      typeMessage,
		ID:        env.ID,
		RoomID:    env.RoomID,
		SenderID:  env.SenderID,
		Content:   env.Content,
		CreatedAt: env.CreatedAt,
	})
	return b
}

func BuildError(msg string) []byte {
	b, _ := json.Marshal(errorFrame{Type: typeError, Message: msg})
	return b
}
