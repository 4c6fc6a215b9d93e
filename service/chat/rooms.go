package chat

import "sync"

// RoomIndex is the per-instance membership bookkeeping: room -> users and
// user -> rooms, kept symmetric under one lock. It is never persisted and is
// not shared across gateway instances, which is exactly why fanout has its
// fallback tiers.
type RoomIndex struct {
	mu        sync.RWMutex
	roomUsers map[string]map[string]struct{}
	userRooms map[string]map[string]struct{}
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		roomUsers: make(map[string]map[string]struct{}),
		userRooms: make(map[string]map[string]struct{}),
	}
}

// Join adds the user on both sides. Re-joining is a no-op.
func (idx *RoomIndex) Join(user, room string) {
	if user == "" || room == "" {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.roomUsers[room] == nil {
		idx.roomUsers[room] = make(map[string]struct{})
	}
	idx.roomUsers[room][user] = struct{}{}
	if idx.userRooms[user] == nil {
		idx.userRooms[user] = make(map[string]struct{})
	}
	idx.userRooms[user][room] = struct{}{}
}

// Leave removes the user on both sides. Leaving a room the user is not in
// is safe.
func (idx *RoomIndex) Leave(user, room string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.leaveLocked(user, room)
}

func (idx *RoomIndex) leaveLocked(user, room string) {
	if members := idx.roomUsers[room]; members != nil {
		delete(members, user)
		if len(members) == 0 {
			delete(idx.roomUsers, room)
		}
	}
	if rooms := idx.userRooms[user]; rooms != nil {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(idx.userRooms, user)
		}
	}
}

// RemoveUser drops the user from every room; connection-close cleanup.
func (idx *RoomIndex) RemoveUser(user string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for room := range idx.userRooms[user] {
		idx.leaveLocked(user, room)
	}
	delete(idx.userRooms, user)
}

func (idx *RoomIndex) IsMember(user, room string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.roomUsers[room][user]
	return ok
}

// Members returns the users of a room per the forward index.
func (idx *RoomIndex) Members(room string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.roomUsers[room]))
	for u := range idx.roomUsers[room] {
		out = append(out, u)
	}
	return out
}

// MembersByReverse scans the user->rooms side for users claiming the room.
// With the invariant intact it equals Members; fanout uses it to catch
// entries the forward index has drifted away from.
func (idx *RoomIndex) MembersByReverse(room string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []string
	for u, rooms := range idx.userRooms {
		if _, ok := rooms[room]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (idx *RoomIndex) MemberCount(room string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.roomUsers[room])
}

// RoomsOf returns the rooms the user is joined to.
func (idx *RoomIndex) RoomsOf(user string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.userRooms[user]))
	for r := range idx.userRooms[user] {
		out = append(out, r)
	}
	return out
}
