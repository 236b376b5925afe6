package service

import "context"

// Service defines the lifecycle of an outer subsystem around the simulation
// Services own long-lived resources: journal database, HTTP listener, audio output
//
// Lifecycle:
//  1. Construction (via the package constructor)
//  2. Start(ctx) - launch background goroutines
//  3. [runtime operation]
//  4. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Start begins service operation; ctx cancellation must also stop it
	Start(ctx context.Context) error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}
