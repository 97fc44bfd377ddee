package relay

import "github.com/google/uuid"

const clientIDPrefix = "client_"

// newClientID returns a random connection id.
func newClientID() string {
	return clientIDPrefix + uuid.NewString()
}
