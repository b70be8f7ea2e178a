// Package delivery defines the transport-facing surface of the application.
package delivery

import "context"

// Delivery is a serving endpoint started by the application container.
type Delivery interface {
	// Serve blocks until the endpoint stops or fails.
	Serve(ctx context.Context) error
}
