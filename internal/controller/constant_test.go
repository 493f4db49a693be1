package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loadwright/pacer/internal/sampler"
)

func TestConstantNeverVaries(t *testing.T) {
	c := NewConstant(5000)
	assert.Equal(t, uint32(5000), c.InitialTPS())
	assert.Equal(t, uint32(5000), c.Limit(sampler.Measurement{}, true))
	assert.Equal(t, uint32(5000), c.Limit(sampler.Measurement{Success: 1}, false))
}
