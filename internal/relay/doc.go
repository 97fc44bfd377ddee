// Package relay implements the connection and room registry behind the
// room-based message relay.
//
// A Registry maps live connections to their joined rooms and rooms to their
// participants, and fans events out to room members. The transport layer
// reports connection lifecycle events (Open, HandleMessage, Close) and the
// HTTP layer uses the accessors (Rooms, Room, Inject). All mutation goes
// through the Registry's methods, which share a single lock.
package relay
