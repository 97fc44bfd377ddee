package relay

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Conn is the transport side of a live session. Send must not block: it
// enqueues the frame and reports whether it was accepted.
type Conn interface {
	Send(payload []byte) bool
	IsOpen() bool
}

// Recorder observes registry activity. Implementations must be safe for
// concurrent use and must not call back into the Registry.
type Recorder interface {
	EventBroadcast(eventType string, recipients int)
	RequestRejected(kind string)
}

type nopRecorder struct{}

func (nopRecorder) EventBroadcast(string, int) {}
func (nopRecorder) RequestRejected(string)     {}

// Participant binds a connection to a room.
type Participant struct {
	UserID   string
	JoinedAt time.Time
}

type connection struct {
	id          string
	joinedRooms map[string]struct{}
}

type room struct {
	id           string
	participants map[Conn]Participant
	createdAt    time.Time
}

// Registry owns the connection table and the room table. The zero value is
// not usable; create one with NewRegistry.
type Registry struct {
	mu    sync.Mutex
	conns map[Conn]*connection
	rooms map[string]*room

	log   *slog.Logger
	rec   Recorder
	newID func() string
	now   func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRecorder sets the activity recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.rec = rec
		}
	}
}

// WithIDGenerator replaces the connection id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithClock replaces the time source.
func WithClock(fn func() time.Time) Option {
	return func(r *Registry) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		conns: make(map[Conn]*connection),
		rooms: make(map[string]*room),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		rec:   nopRecorder{},
		newID: newClientID,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open registers c and sends it the connected event. It returns the new
// connection id.
func (r *Registry) Open(c Conn) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.register(c)
	r.log.Info("client connected", "client", id)
	r.send(c, connectedEvent(id))
	return id
}

// Close leaves every room c belongs to, with the usual notifications and
// empty-room cleanup, then forgets c. Unknown connections are ignored.
func (r *Registry) Close(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.lookup(c)
	if !ok {
		return
	}

	for _, roomID := range sortedKeys(conn.joinedRooms) {
		r.leave(c, roomID)
	}
	r.unregister(c)
	r.log.Info("client disconnected", "client", conn.id)
}

// HandleMessage decodes and dispatches one inbound frame from c. Frames from
// unknown connections are dropped. Failures are reported to c only.
func (r *Registry) HandleMessage(c Conn, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.lookup(c)
	if !ok {
		return
	}

	cmd, err := DecodeCommand(raw)
	switch {
	case errors.Is(err, ErrUnknownCommand):
		r.log.Warn("unknown message type", "client", conn.id, "err", err)
		return
	case err != nil:
		r.log.Warn("invalid message", "client", conn.id, "err", err)
		r.reject(c, requestError(ErrInvalidPayload, msgInvalidFormat))
		return
	}

	if err := cmd.Validate(); err != nil {
		r.reject(c, err)
		return
	}

	switch cmd := cmd.(type) {
	case JoinRoom:
		r.join(c, conn, cmd.RoomID, cmd.UserID)
	case LeaveRoom:
		r.leave(c, cmd.RoomID)
	case RoomMessage:
		if err := r.roomMessage(c, conn, cmd); err != nil {
			r.reject(c, err)
		}
	}
}

// Join adds c to roomID, creating the room if needed. An empty roomID is
// rejected with ErrInvalidRequest and nothing changes.
func (r *Registry) Join(c Conn, roomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.lookup(c)
	if !ok {
		return nil
	}
	cmd := JoinRoom{RoomID: roomID, UserID: userID}
	if err := cmd.Validate(); err != nil {
		r.reject(c, err)
		return err
	}
	r.join(c, conn, roomID, userID)
	return nil
}

// Leave removes c from roomID. It is a no-op when c is not a member.
func (r *Registry) Leave(c Conn, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leave(c, roomID)
}

// SendRoomMessage broadcasts message to every participant of roomID,
// including the sender.
func (r *Registry) SendRoomMessage(c Conn, roomID, message, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.lookup(c)
	if !ok {
		return nil
	}
	cmd := RoomMessage{RoomID: roomID, Message: message, UserID: userID}
	err := cmd.Validate()
	if err == nil {
		err = r.roomMessage(c, conn, cmd)
	}
	if err != nil {
		r.reject(c, err)
	}
	return err
}

// Broadcast sends ev to every open participant of roomID except exclude and
// returns how many accepted it. A missing room yields 0.
func (r *Registry) Broadcast(roomID string, ev Event, exclude Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.broadcast(roomID, ev, exclude)
}

func (r *Registry) join(c Conn, conn *connection, roomID, userID string) {
	if userID == "" {
		userID = conn.id
	}

	rm := r.getOrCreate(roomID)
	rm.participants[c] = Participant{UserID: userID, JoinedAt: r.now()}
	conn.joinedRooms[roomID] = struct{}{}
	count := len(rm.participants)

	r.log.Info("client joined room", "client", conn.id, "room", roomID, "user", userID)

	r.send(c, Event{
		Type: EventJoinedRoom,
		Data: JoinedRoomData{RoomID: roomID, ParticipantCount: count, UserID: userID},
	})
	r.broadcast(roomID, Event{
		Type: EventUserJoined,
		Data: PresenceData{UserID: userID, ParticipantCount: count},
	}, c)
}

func (r *Registry) leave(c Conn, roomID string) {
	conn, ok := r.lookup(c)
	if !ok {
		return
	}
	rm, ok := r.get(roomID)
	if !ok {
		return
	}
	participant, member := rm.participants[c]
	if !member {
		return
	}

	delete(rm.participants, c)
	delete(conn.joinedRooms, roomID)
	count := len(rm.participants)

	r.log.Info("client left room", "client", conn.id, "room", roomID)

	r.send(c, Event{Type: EventLeftRoom, Data: LeftRoomData{RoomID: roomID}})
	r.broadcast(roomID, Event{
		Type: EventUserLeft,
		Data: PresenceData{UserID: participant.UserID, ParticipantCount: count},
	}, c)

	if count == 0 {
		delete(r.rooms, roomID)
		r.log.Info("room deleted", "room", roomID)
	}
}

func (r *Registry) roomMessage(c Conn, conn *connection, cmd RoomMessage) error {
	rm, ok := r.get(cmd.RoomID)
	if !ok {
		return requestError(ErrNotAMember, msgNotInRoom)
	}
	participant, member := rm.participants[c]
	if !member {
		return requestError(ErrNotAMember, msgNotInRoom)
	}

	userID := cmd.UserID
	if userID == "" {
		userID = participant.UserID
	}
	r.log.Debug("room message", "client", conn.id, "room", cmd.RoomID, "user", userID)
	r.broadcast(cmd.RoomID, roomMessageEvent(cmd.RoomID, cmd.Message, userID, r.now()), nil)
	return nil
}

func (r *Registry) broadcast(roomID string, ev Event, exclude Conn) int {
	rm, ok := r.get(roomID)
	if !ok {
		return 0
	}

	payload, err := encodeEvent(ev)
	if err != nil {
		r.log.Error("encode event", "type", ev.Type, "err", err)
		return 0
	}

	delivered := 0
	for c := range rm.participants {
		if c == exclude || !c.IsOpen() {
			continue
		}
		if c.Send(payload) {
			delivered++
		}
	}
	r.rec.EventBroadcast(ev.Type, delivered)
	return delivered
}

// send delivers ev to a single connection if it is open.
func (r *Registry) send(c Conn, ev Event) {
	if !c.IsOpen() {
		return
	}
	payload, err := encodeEvent(ev)
	if err != nil {
		r.log.Error("encode event", "type", ev.Type, "err", err)
		return
	}
	c.Send(payload)
}

func (r *Registry) reject(c Conn, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = requestError(ErrInvalidRequest, err.Error())
	}
	r.rec.RequestRejected(reqErr.Kind.Error())
	r.send(c, errorEvent(reqErr.Message))
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
