package chat

import (
	"RoomRelay/tools/errs"
)

// ChatContext carries what a handler needs: the server and the connection
// the frame arrived on.
type ChatContext struct {
	S *Server
	C *Client
}

type Handler interface {
	Type() FrameType
	Handle(ctx *ChatContext, f Frame) error
}

type Dispatcher struct {
	handlers map[FrameType]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[FrameType]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) Dispatch(ctx *ChatContext, f Frame) error {
	h, ok := d.handlers[f.FrameType()]
	if !ok {
		return errs.ErrProtocol.WithDetail("no handler for type " + string(f.FrameType()))
	}
	return h.Handle(ctx, f)
}
