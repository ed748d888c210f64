package coupon

import (
	"context"

	"rentwheels/internal/model"
)

// Loader defines the interface for loading coupon catalogue files.
type Loader interface {
	// Load reads a catalogue file (gzipped or plain JSON lines) and returns its coupons.
	Load(ctx context.Context, filePath string) ([]model.Coupon, error)
}

// IDSet represents a set of identifiers for fast membership checks.
type IDSet interface {
	// Contains checks if an identifier exists in the set.
	Contains(id string) bool

	// Size returns the number of identifiers in the set.
	Size() int
}
