// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package services

import (
	"context"
)

// ImportGate is the slice of the admission gate this service manages.
type ImportGate interface {
	Bind(ctx context.Context)
	Shutdown()
}

// GateService ties the import gate's lifecycle to the supervision tree:
// imports run under the service context, and shutdown waits for the
// active import to stop at its next chunk boundary.
type GateService struct {
	gate ImportGate
}

// NewGateService wraps the gate as a supervised service.
func NewGateService(gate ImportGate) *GateService {
	return &GateService{gate: gate}
}

// Serve implements suture.Service.
func (s *GateService) Serve(ctx context.Context) error {
	s.gate.Bind(ctx)
	<-ctx.Done()
	s.gate.Shutdown()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *GateService) String() string {
	return "import-gate"
}
