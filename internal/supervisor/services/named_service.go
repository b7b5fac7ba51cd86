// Package services adapts long-running relay-engine components to
// suture.Service by pairing their Serve(ctx) loop with a name used in
// supervisor logging.
package services

import (
	"context"
)

// ContextService is satisfied by the long-running loops in this project:
// the listener, each upstream Connection Supervisor, the dedup cache sweep
// and the metrics server expose a Serve(ctx) method with this signature;
// the client hub's RunWithContext is adapted to it through ServeFunc.
//
// Any ContextService already satisfies suture.Service on its own; this
// interface exists only so NamedService can wrap one generically without
// importing each component's concrete package.
type ContextService interface {
	Serve(ctx context.Context) error
}

// NamedService wraps a ContextService with a fixed name for supervisor
// logging.
type NamedService struct {
	svc  ContextService
	name string
}

// NewNamedService wraps svc so suture logs identify it as name.
func NewNamedService(name string, svc ContextService) *NamedService {
	return &NamedService{svc: svc, name: name}
}

// Serve implements suture.Service by delegating to the wrapped service.
func (n *NamedService) Serve(ctx context.Context) error {
	return n.svc.Serve(ctx)
}

// String implements fmt.Stringer; suture uses it to identify the service
// in log messages.
func (n *NamedService) String() string {
	return n.name
}

// ServeFunc adapts a plain function to ContextService, for components such
// as *wsrelay.Hub whose long-running loop is named RunWithContext rather
// than Serve.
type ServeFunc func(ctx context.Context) error

// Serve implements ContextService.
func (f ServeFunc) Serve(ctx context.Context) error {
	return f(ctx)
}
