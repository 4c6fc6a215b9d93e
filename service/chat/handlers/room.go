package handlers

import (
	"RoomRelay/logger"
	"RoomRelay/service/chat"
)

type JoinRoomHandler struct{}

func NewJoinRoomHandler() chat.Handler          { return &JoinRoomHandler{} }
func (h *JoinRoomHandler) Type() chat.FrameType { return chat.FrameJoinRoom }

func (h *JoinRoomHandler) Handle(ctx *chat.ChatContext, f chat.Frame) error {
	jf := f.(*chat.JoinRoomFrame)
	if ctx.C.UserID == "" {
		ctx.C.Push(chat.BuildError("authentication required"))
		return nil
	}
	ctx.S.Rooms().Join(ctx.C.UserID, jf.RoomID)
	ctx.C.Push(chat.BuildJoinRoomSuccess(jf.RoomID))
	logger.Infof("[room] join user=%s room=%s", ctx.C.UserID, jf.RoomID)
	return nil
}

type LeaveRoomHandler struct{}

func NewLeaveRoomHandler() chat.Handler          { return &LeaveRoomHandler{} }
func (h *LeaveRoomHandler) Type() chat.FrameType { return chat.FrameLeaveRoom }

func (h *LeaveRoomHandler) Handle(ctx *chat.ChatContext, f chat.Frame) error {
	lf := f.(*chat.LeaveRoomFrame)
	if ctx.C.UserID == "" {
		ctx.C.Push(chat.BuildError("authentication required"))
		return nil
	}
	ctx.S.Rooms().Leave(ctx.C.UserID, lf.RoomID)
	ctx.C.Push(chat.BuildLeaveRoomSuccess(lf.RoomID))
	logger.Infof("[room] leave user=%s room=%s", ctx.C.UserID, lf.RoomID)
	return nil
}
