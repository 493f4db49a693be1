package controller

import "github.com/loadwright/pacer/internal/sampler"

// Constant enforces a fixed TPS ceiling; it never varies its candidate.
type Constant struct {
	TPS uint32
}

// NewConstant builds a Constant controller capped at tps.
func NewConstant(tps uint32) *Constant { return &Constant{TPS: tps} }

func (c *Constant) InitialTPS() uint32 { return c.TPS }

func (c *Constant) Limit(sampler.Measurement, bool) uint32 { return c.TPS }
