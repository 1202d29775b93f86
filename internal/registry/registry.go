package registry

import "sync"

// MaxMembers is the admission cap per room.
const MaxMembers = 2

// Registry is the process-local record of which connections are currently
// inside which room. It is presence only: documents live in the store,
// and the registry rebuilds to empty on restart. All methods are safe for
// concurrent use; TryAdmit is atomic with respect to the cap.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string][]string // roomKey -> connection IDs in join order
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		rooms: make(map[string][]string),
	}
}

// TryAdmit reserves a membership slot for the connection. It returns false
// when the room is already at capacity. Admitting a connection that is
// already a member is a no-op that reports success.
func (r *Registry) TryAdmit(roomKey, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomKey]
	for _, id := range members {
		if id == connID {
			return true
		}
	}
	if len(members) >= MaxMembers {
		return false
	}

	r.rooms[roomKey] = append(members, connID)
	return true
}

// Leave removes the connection from the room. Removing an absent member is
// a no-op. A room whose last member leaves is dropped from the registry.
func (r *Registry) Leave(roomKey, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomKey]
	for i, id := range members {
		if id == connID {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}

	if len(members) == 0 {
		delete(r.rooms, roomKey)
		return
	}
	r.rooms[roomKey] = members
}

// Members returns a snapshot of the room's member IDs in join order.
func (r *Registry) Members(roomKey string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomKey]
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// IsEmpty reports whether the room currently has no members.
func (r *Registry) IsEmpty(roomKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomKey]) == 0
}

// RoomCount returns the number of rooms with at least one live member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
