// Package server implements the HTTP and WebSocket transport for the room
// relay.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, the REST API, and HTTP handlers. Room and
// membership bookkeeping lives in the relay package; this package only moves
// frames between sockets and the relay registry.
package server
