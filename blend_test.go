package grender_test

import (
	"testing"

	"github.com/db47h/grender"
	"github.com/stretchr/testify/assert"
)

func TestBlendFunc(t *testing.T) {
	assert.Equal(t, grender.BlendFunc{Src: grender.One, Dst: grender.OneMinusSrcAlpha}, grender.BlendAlphaPremultiplied)
	assert.NotEqual(t, grender.BlendAlphaPremultiplied, grender.BlendAlphaNonPremultiplied)
	assert.Equal(t, "{DstColor, OneMinusSrcAlpha}", grender.BlendMultiply.String())
	assert.Equal(t, "BlendFactor(0x42)", grender.BlendFactor(0x42).String())
	assert.Equal(t, grender.BlendFactor(0x0303), grender.OneMinusSrcAlpha)
}
