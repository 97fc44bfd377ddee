package relay

import (
	"sort"
	"time"
)

// ConnectionInfo is a snapshot of one connection's bookkeeping.
type ConnectionInfo struct {
	ID          string
	JoinedRooms []string
}

// RoomSummary describes a room in listings.
type RoomSummary struct {
	RoomID           string
	ParticipantCount int
	CreatedAt        time.Time
}

// ParticipantInfo is the public view of a Participant.
type ParticipantInfo struct {
	UserID   string
	JoinedAt time.Time
}

// RoomDetail describes a room and its participants, oldest member first.
type RoomDetail struct {
	RoomSummary
	Participants []ParticipantInfo
}

// Injection reports the outcome of Inject.
type Injection struct {
	RoomID         string
	RecipientCount int
	Timestamp      time.Time
}

// Stats holds table sizes.
type Stats struct {
	Connections  int
	Rooms        int
	Participants int
}

// DefaultInjectUserID is used for injected messages without a userId.
const DefaultInjectUserID = "api"

// Lookup returns a snapshot of c's bookkeeping.
func (r *Registry) Lookup(c Conn) (ConnectionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.lookup(c)
	if !ok {
		return ConnectionInfo{}, false
	}
	return ConnectionInfo{ID: conn.id, JoinedRooms: sortedKeys(conn.joinedRooms)}, true
}

// Rooms lists every active room ordered by id.
func (r *Registry) Rooms() []RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]RoomSummary, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm.summary())
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	return rooms
}

// Room returns the detail of roomID, or false if no such room exists.
func (r *Registry) Room(roomID string) (RoomDetail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.get(roomID)
	if !ok {
		return RoomDetail{}, false
	}

	participants := make([]ParticipantInfo, 0, len(rm.participants))
	for _, p := range rm.participants {
		participants = append(participants, ParticipantInfo{UserID: p.UserID, JoinedAt: p.JoinedAt})
	}
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].UserID < participants[j].UserID
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return RoomDetail{RoomSummary: rm.summary(), Participants: participants}, true
}

// Inject broadcasts message into roomID on behalf of a caller without a
// connection. It fails with ErrInvalidRequest for an empty message and
// ErrRoomNotFound when the room does not exist.
func (r *Registry) Inject(roomID, message, userID string) (Injection, error) {
	if message == "" {
		return Injection{}, requestError(ErrInvalidRequest, msgMessageRequired)
	}
	if userID == "" {
		userID = DefaultInjectUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.get(roomID); !ok {
		r.rec.RequestRejected(ErrRoomNotFound.Error())
		return Injection{}, requestError(ErrRoomNotFound, msgRoomNotFound)
	}

	at := r.now()
	sent := r.broadcast(roomID, roomMessageEvent(roomID, message, userID, at), nil)
	r.log.Info("message injected", "room", roomID, "user", userID, "recipients", sent)
	return Injection{RoomID: roomID, RecipientCount: sent, Timestamp: at}, nil
}

// Stats returns the current table sizes.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Connections: len(r.conns), Rooms: len(r.rooms)}
	for _, rm := range r.rooms {
		s.Participants += len(rm.participants)
	}
	return s
}

func (rm *room) summary() RoomSummary {
	return RoomSummary{
		RoomID:           rm.id,
		ParticipantCount: len(rm.participants),
		CreatedAt:        rm.createdAt,
	}
}
