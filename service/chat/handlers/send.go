package handlers

import (
	"context"
	"time"

	"RoomRelay/logger"
	"RoomRelay/module/chat/model"
	"RoomRelay/service/chat"
	"RoomRelay/tools/ids"
)

const enqueueTimeout = 3 * time.Second

type SendMessageHandler struct{}

func NewSendMessageHandler() chat.Handler          { return &SendMessageHandler{} }
func (h *SendMessageHandler) Type() chat.FrameType { return chat.FrameSendMessage }

// Handle enqueues the message for the worker and immediately echoes it back
// to the sender. The echo is the sender's delivery; it does not wait on (or
// depend on) persistence and fanout succeeding.
func (h *SendMessageHandler) Handle(ctx *chat.ChatContext, f chat.Frame) error {
	sf := f.(*chat.SendMessageFrame)
	if ctx.C.UserID == "" {
		ctx.C.Push(chat.BuildError("authentication required"))
		return nil
	}

	msgID := sf.MsgID
	if msgID == "" {
		msgID = ids.GenerateString()
	}
	meta := sf.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	out := &model.OutboundMessage{
		MsgID:          msgID,
		RoomID:         sf.RoomID,
		ClientSenderID: ctx.C.UserID,
		Content:        sf.Content,
		Metadata:       meta,
		SentAt:         time.Now().UTC(),
	}

	qctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()
	if err := ctx.S.Queue().Enqueue(qctx, out); err != nil {
		logger.Errorf("[send] enqueue failed user=%s room=%s: %v", ctx.C.UserID, sf.RoomID, err)
		ctx.C.Push(chat.BuildError("message queue unavailable"))
		return nil
	}

	ctx.C.Push(chat.BuildSendMessageSuccess(sf.MsgID, out.MsgID, out.SentAt))

	// Optimistic local echo: instant feedback for the sender, who is
	// excluded from fanout later.
	ctx.C.Push(chat.BuildMessage(&model.Envelope{
		ID:        out.MsgID,
		RoomID:    out.RoomID,
		SenderID:  out.ClientSenderID,
		Content:   out.Content,
		CreatedAt: out.SentAt,
	}))
	return nil
}
