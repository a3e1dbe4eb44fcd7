package service

import "context"

// DeviceIdentity supplies the stable installation identifier used to
// provision guest accounts. Implementations must return the same id for the
// lifetime of the installation, falling back to a generated identifier when
// no platform id is available.
type DeviceIdentity interface {
	DeviceID(ctx context.Context) (string, error)
}
