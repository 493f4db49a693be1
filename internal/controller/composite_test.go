package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loadwright/pacer/internal/sampler"
)

func TestCompositeTakesMinimumCandidate(t *testing.T) {
	a := NewConstant(500)
	b := NewConstant(300)
	c := NewComposite([]Controller{a, b}, 0, nil)

	assert.Equal(t, uint32(300), c.Limit(sampler.Measurement{}, true))
}

func TestCompositeInitialTPSUsesHintFirst(t *testing.T) {
	a := NewConstant(500)
	c := NewComposite([]Controller{a}, 999, nil)
	assert.Equal(t, uint32(999), c.InitialTPS())
}

func TestCompositeInitialTPSDerivesMinWithoutHint(t *testing.T) {
	a := NewConstant(500)
	b := NewConstant(300)
	c := NewComposite([]Controller{a, b}, 0, nil)
	assert.Equal(t, uint32(300), c.InitialTPS())
}
