package module

import (
	"context"

	"sentimentd/internal/services/api/classify/domain"
)

// Ports is what classify exposes to other modules
type Ports struct {
	Service domain.ServicePort
	// Checks are readiness probes for the dependencies classify owns
	Checks []Check
}

// Check is one named readiness probe
type Check struct {
	Name string
	Ping func(context.Context) error
}

// Ports implements the module.Module interface
func (m *Module) Ports() any { return m.ports }
