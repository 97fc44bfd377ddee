package relay

// The helpers below assume r.mu is held.

func (r *Registry) register(c Conn) string {
	id := r.newID()
	r.conns[c] = &connection{id: id, joinedRooms: make(map[string]struct{})}
	return id
}

func (r *Registry) lookup(c Conn) (*connection, bool) {
	conn, ok := r.conns[c]
	return conn, ok
}

// unregister drops c from the connection table. Callers leave its rooms
// first.
func (r *Registry) unregister(c Conn) {
	delete(r.conns, c)
}

func (r *Registry) getOrCreate(roomID string) *room {
	if rm, ok := r.rooms[roomID]; ok {
		return rm
	}
	rm := &room{
		id:           roomID,
		participants: make(map[Conn]Participant),
		createdAt:    r.now(),
	}
	r.rooms[roomID] = rm
	r.log.Info("room created", "room", roomID)
	return rm
}

func (r *Registry) get(roomID string) (*room, bool) {
	rm, ok := r.rooms[roomID]
	return rm, ok
}
