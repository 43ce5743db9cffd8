package providers

import "time"

const (
	// defaultShutdownTimeout bounds graceful HTTP shutdown when the config
	// does not set one.
	defaultShutdownTimeout = 30 * time.Second
)
