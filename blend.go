package grender

import "fmt"

// BlendFactor selects a source or destination blending factor.
//
// BlendFactor values map directly to their OpenGL equivalents.
type BlendFactor uint32

const (
	Zero             BlendFactor = 0
	One              BlendFactor = 1
	SrcColor         BlendFactor = 0x0300
	OneMinusSrcColor BlendFactor = 0x0301
	SrcAlpha         BlendFactor = 0x0302
	OneMinusSrcAlpha BlendFactor = 0x0303
	DstAlpha         BlendFactor = 0x0304
	OneMinusDstAlpha BlendFactor = 0x0305
	DstColor         BlendFactor = 0x0306
	OneMinusDstColor BlendFactor = 0x0307
)

var blendFactorNames = map[BlendFactor]string{
	Zero:             "Zero",
	One:              "One",
	SrcColor:         "SrcColor",
	OneMinusSrcColor: "OneMinusSrcColor",
	SrcAlpha:         "SrcAlpha",
	OneMinusSrcAlpha: "OneMinusSrcAlpha",
	DstAlpha:         "DstAlpha",
	OneMinusDstAlpha: "OneMinusDstAlpha",
	DstColor:         "DstColor",
	OneMinusDstColor: "OneMinusDstColor",
}

func (f BlendFactor) String() string {
	if s, ok := blendFactorNames[f]; ok {
		return s
	}
	return fmt.Sprintf("BlendFactor(%#x)", uint32(f))
}

// BlendFunc describes how source fragments are combined with the destination:
//
//	dst = src*Src + dst*Dst
//
// Two BlendFuncs are equal if both factors are equal. Batch compatibility of
// render commands relies on that comparison.
type BlendFunc struct {
	Src BlendFactor
	Dst BlendFactor
}

// Common blend functions.
var (
	BlendAlphaPremultiplied    = BlendFunc{One, OneMinusSrcAlpha}
	BlendAlphaNonPremultiplied = BlendFunc{SrcAlpha, OneMinusSrcAlpha}
	BlendAdditive              = BlendFunc{SrcAlpha, One}
	BlendOpaque                = BlendFunc{One, Zero}
	BlendMultiply              = BlendFunc{DstColor, OneMinusSrcAlpha}
)

func (b BlendFunc) String() string {
	return "{" + b.Src.String() + ", " + b.Dst.String() + "}"
}
