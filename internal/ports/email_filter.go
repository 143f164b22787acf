package ports

import (
	"context"

	"github.com/mikey/mailguard/internal/core"
)

// Runner is a long-running frontend of the service
type Runner interface {
	// Start starts serving in the background
	Start() error

	// Stop stops serving
	Stop() error
}

// EmailFilter defines the interface for email filtering
type EmailFilter interface {
	Runner

	// ProcessEmail processes an email and returns the filtering result
	ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error)
}
