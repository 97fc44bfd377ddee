// Package server wires HTTP handlers into a gorilla/mux router for the relay
// via routing helpers.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

// SetupRoutes configures and returns the application router. metrics may be
// nil, in which case /metrics is not served.
func SetupRoutes(hub *Hub, metrics http.Handler) http.Handler {
	api := NewRoomsAPI(hub.Registry(), hub.log)

	router := mux.NewRouter()
	// Handshakes are upgraded on any path before normal routing applies.
	router.MatcherFunc(isUpgrade).HandlerFunc(hub.ServeWS)
	router.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/home", HomePageHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", hub.ServeWS)
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	rooms := router.PathPrefix("/api/rooms").Subrouter()
	rooms.HandleFunc("", api.ListRooms).Methods(http.MethodGet)
	rooms.HandleFunc("/", api.ListRooms).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomId}", api.GetRoom).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomId}/message", api.PostMessage).Methods(http.MethodPost)

	router.HandleFunc("/", HealthHandler).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowOriginFunc: hub.origins.allowsOrigin,
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:  []string{"Content-Type"},
	})
	return c.Handler(router)
}

func isUpgrade(r *http.Request, _ *mux.RouteMatch) bool {
	return websocket.IsWebSocketUpgrade(r)
}
