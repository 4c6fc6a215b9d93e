package handlers

import (
	"RoomRelay/service/chat"
)

// RegisterAll wires every frame handler into the server's dispatcher.
func RegisterAll(s *chat.Server) {
	s.Disp().Register(NewAuthHandler())
	s.Disp().Register(NewJoinRoomHandler())
	s.Disp().Register(NewLeaveRoomHandler())
	s.Disp().Register(NewSendMessageHandler())
}
