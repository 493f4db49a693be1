// Package controller implements the constraint controllers — constant TPS
// cap, error-rate convergence, latency convergence, and the composite that
// combines them — each emitting a candidate TPS ceiling for the next
// sampling interval.
package controller

import "github.com/loadwright/pacer/internal/sampler"

// Controller reads recent Measurements and emits a candidate TPS ceiling
// consistent with its single constraint.
type Controller interface {
	// InitialTPS seeds the run before any measurement exists.
	InitialTPS() uint32
	// Limit returns the controller's preferred TPS ceiling for the next
	// interval, given the latest Measurement and whether the sampler
	// reported the current goal as stable.
	Limit(m sampler.Measurement, stable bool) uint32
}
