package chat

import (
	"context"

	"RoomRelay/logger"
	"RoomRelay/module/chat/model"
)

// RunFanout consumes envelopes from the bus subscription and delivers them
// to locally-connected room members. One goroutine, one envelope at a time:
// the serialization is what lets the dedup cache and the membership index be
// touched here without extra coordination against other callbacks.
func (s *Server) RunFanout(ctx context.Context, envs <-chan *model.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-envs:
			if !ok {
				return
			}
			s.deliver(env)
		}
	}
}

// deliver runs the three-tier delivery policy for one envelope. Membership
// state is private to this instance and can drift from what other replicas
// believe, so after the targeted pass we widen twice before giving up;
// at-least-once reach beats a wasted broadcast.
func (s *Server) deliver(env *model.Envelope) {
	if env.ID != "" && s.dedup.Seen(env.ID) {
		return
	}

	payload := BuildMessage(env)
	delivered := make(map[string]bool)

	// Tier 1: tracked members of the room, sender excluded (it already got
	// the optimistic echo on send).
	for _, user := range s.rooms.Members(env.RoomID) {
		if user == env.SenderID || delivered[user] {
			continue
		}
		if c, ok := s.conns.Get(user); ok {
			c.Push(payload)
			delivered[user] = true
		}
	}

	// Tier 2: reverse-index scan for users whose user->rooms entry still
	// claims this room but who were missed above.
	for _, user := range s.rooms.MembersByReverse(env.RoomID) {
		if user == env.SenderID || delivered[user] {
			continue
		}
		if c, ok := s.conns.Get(user); ok {
			c.Push(payload)
			delivered[user] = true
		}
	}

	// Tier 3: safety net. If we reached fewer connections than the room is
	// tracked to have, or this instance tracks nobody for the room at all,
	// hand the frame to every remaining live connection. The sender never
	// counts toward expected reach.
	tracked := s.rooms.MemberCount(env.RoomID)
	expected := tracked
	if s.rooms.IsMember(env.SenderID, env.RoomID) {
		expected--
	}
	if len(delivered) < expected || tracked == 0 {
		for user, c := range s.conns.Snapshot() {
			if user == env.SenderID || delivered[user] {
				continue
			}
			c.Push(payload)
			delivered[user] = true
		}
		logger.Infof("[fanout] widened to broadcast room=%s tracked=%d reached=%d", env.RoomID, tracked, len(delivered))
	}

	if env.ID != "" {
		s.dedup.Mark(env.ID)
	}
}
