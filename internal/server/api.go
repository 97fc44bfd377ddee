package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Tyrowin/roomrelay/internal/relay"
)

const maxInjectBodySize = 1 << 20

// RoomsAPI serves room introspection and message injection over HTTP.
type RoomsAPI struct {
	registry *relay.Registry
	log      *slog.Logger
}

// NewRoomsAPI returns handlers backed by registry.
func NewRoomsAPI(registry *relay.Registry, logger *slog.Logger) *RoomsAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomsAPI{registry: registry, log: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

type injectRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type injectResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	RoomID         string `json:"roomId"`
	RecipientCount int    `json:"recipientCount"`
	Timestamp      string `json:"timestamp"`
}

type roomSummaryResponse struct {
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
	CreatedAt        string `json:"createdAt"`
}

type participantResponse struct {
	UserID   string `json:"userId"`
	JoinedAt string `json:"joinedAt"`
}

type roomDetailResponse struct {
	RoomID           string                `json:"roomId"`
	ParticipantCount int                   `json:"participantCount"`
	CreatedAt        string                `json:"createdAt"`
	Participants     []participantResponse `json:"participants"`
}

type roomListResponse struct {
	Rooms      []roomSummaryResponse `json:"rooms"`
	TotalRooms int                   `json:"totalRooms"`
}

// PostMessage handles POST /api/rooms/{roomId}/message.
func (a *RoomsAPI) PostMessage(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	var req injectRequest
	body := http.MaxBytesReader(w, r.Body, maxInjectBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.log.Debug("decode inject body", "room", roomID, "err", err)
		req = injectRequest{}
	}

	res, err := a.registry.Inject(roomID, req.Message, req.UserID)
	switch {
	case errors.Is(err, relay.ErrInvalidRequest):
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: relay.ClientMessage(err)})
		return
	case errors.Is(err, relay.ErrRoomNotFound):
		a.writeJSON(w, http.StatusNotFound, errorResponse{Error: relay.ClientMessage(err)})
		return
	case err != nil:
		a.log.Error("inject message", "room", roomID, "err", err)
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	a.writeJSON(w, http.StatusOK, injectResponse{
		Success:        true,
		Message:        "Message sent to room",
		RoomID:         res.RoomID,
		RecipientCount: res.RecipientCount,
		Timestamp:      relay.FormatTimestamp(res.Timestamp),
	})
}

// GetRoom handles GET /api/rooms/{roomId}.
func (a *RoomsAPI) GetRoom(w http.ResponseWriter, r *http.Request) {
	detail, ok := a.registry.Room(mux.Vars(r)["roomId"])
	if !ok {
		a.writeJSON(w, http.StatusNotFound, errorResponse{Error: "Room not found"})
		return
	}

	participants := make([]participantResponse, 0, len(detail.Participants))
	for _, p := range detail.Participants {
		participants = append(participants, participantResponse{
			UserID:   p.UserID,
			JoinedAt: relay.FormatTimestamp(p.JoinedAt),
		})
	}

	a.writeJSON(w, http.StatusOK, roomDetailResponse{
		RoomID:           detail.RoomID,
		ParticipantCount: detail.ParticipantCount,
		CreatedAt:        relay.FormatTimestamp(detail.CreatedAt),
		Participants:     participants,
	})
}

// ListRooms handles GET /api/rooms.
func (a *RoomsAPI) ListRooms(w http.ResponseWriter, _ *http.Request) {
	summaries := a.registry.Rooms()
	rooms := make([]roomSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		rooms = append(rooms, roomSummaryResponse{
			RoomID:           s.RoomID,
			ParticipantCount: s.ParticipantCount,
			CreatedAt:        relay.FormatTimestamp(s.CreatedAt),
		})
	}
	a.writeJSON(w, http.StatusOK, roomListResponse{Rooms: rooms, TotalRooms: len(rooms)})
}

func (a *RoomsAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn("write json response", "err", err)
	}
}
