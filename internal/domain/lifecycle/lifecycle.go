// Package lifecycle defines shared lifecycle constants for infra components.
package lifecycle

import "time"

// DefaultTimeout bounds startup and shutdown of long-lived resources.
const DefaultTimeout = 10 * time.Second
