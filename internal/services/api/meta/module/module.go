// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"sentimentd/internal/core/version"
	"sentimentd/internal/modkit"
	"sentimentd/internal/modkit/httpkit"
	metahttp "sentimentd/internal/services/api/meta/http"
)

// Ports are what meta needs from the rest of the API, injected with modkit.WithPorts
type Ports struct {
	Checks []metahttp.Check
	Model  metahttp.ModelFunc
}

// Module implements the module.Module interface
type Module struct {
	deps      modkit.Deps
	b         modkit.Built
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{deps: deps, b: b, startedAt: time.Now()}
}

// MountRoutes implements the module.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	d := metahttp.Deps{
		ServiceName: version.Info().Service,
		StartedAt:   m.startedAt,
	}
	if p, ok := m.b.Ports.(Ports); ok {
		d.Checks, d.Model = p.Checks, p.Model
	}
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, d) })
}

// Name implements the module.Module interface
func (m *Module) Name() string { return m.b.Name }

// Ports implements the module.Module interface
func (m *Module) Ports() any { return nil }
