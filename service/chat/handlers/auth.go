package handlers

import (
	"RoomRelay/logger"
	"RoomRelay/service/chat"
)

type AuthHandler struct{}

func NewAuthHandler() chat.Handler          { return &AuthHandler{} }
func (h *AuthHandler) Type() chat.FrameType { return chat.FrameAuth }

// Handle verifies the token and binds the user identity to the connection.
// A bad token leaves the connection open and unauthenticated.
func (h *AuthHandler) Handle(ctx *chat.ChatContext, f chat.Frame) error {
	af := f.(*chat.AuthFrame)

	userID, err := ctx.S.Verifier().Verify(af.Token)
	if err != nil {
		logger.Infof("[auth] verify failed conn=%s: %v", ctx.C.ConnID, err)
		ctx.C.Push(chat.BuildError("invalid token"))
		return nil
	}

	// Re-auth under a different identity releases the old one first.
	if old := ctx.C.UserID; old != "" && old != userID {
		ctx.S.ConnMgr().Remove(old, ctx.C)
		ctx.S.Rooms().RemoveUser(old)
	}

	ctx.C.UserID = userID
	if evicted := ctx.S.ConnMgr().Register(userID, ctx.C); evicted != nil {
		// Same user, fresh connection: the old one is superseded.
		logger.Infof("[auth] evicting stale conn=%s user=%s", evicted.ConnID, userID)
		evicted.Close()
	}

	ctx.C.Push(chat.BuildAuthSuccess(userID))
	logger.Infof("[auth] bound conn=%s user=%s", ctx.C.ConnID, userID)
	return nil
}
