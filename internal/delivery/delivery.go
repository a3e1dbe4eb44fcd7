// Package delivery declares the contract every transport surface of the
// engine satisfies.
package delivery

import "context"

// Delivery is a long-running transport serving the engine's public surface.
type Delivery interface {
	Serve(ctx context.Context) error
}
