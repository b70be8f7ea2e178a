package repository

import (
	"context"
	"errors"
)

// ErrSettingNotFound is returned when no value is stored under a key.
var ErrSettingNotFound = errors.New("setting not found")

// SettingRepository stores small operational key-value settings, such as the
// current price sheet URL set by an admin command.
type SettingRepository interface {
	// Get retrieves the value stored under the key.
	Get(ctx context.Context, key string) (string, error)

	// Set upserts the value under the key.
	Set(ctx context.Context, key string, value string) error
}
