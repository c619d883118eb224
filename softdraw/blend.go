package softdraw

import "github.com/db47h/grender"

// blendPixel computes dst = src*Src + dst*Dst for one premultiplied RGBA pixel.
func blendPixel(dst, src []uint8, b grender.BlendFunc) {
	sa, da := src[3], dst[3]
	var out [4]uint8
	for i := 0; i < 4; i++ {
		s, d := src[i], dst[i]
		v := uint32(mulDiv255(s, factor(b.Src, s, sa, d, da))) +
			uint32(mulDiv255(d, factor(b.Dst, s, sa, d, da)))
		if v > 255 {
			v = 255
		}
		out[i] = uint8(v)
	}
	copy(dst, out[:])
}

// factor returns the blend factor f for channel values s and d, scaled to
// [0, 255].
func factor(f grender.BlendFactor, s, sa, d, da uint8) uint8 {
	switch f {
	case grender.Zero:
		return 0
	case grender.One:
		return 255
	case grender.SrcColor:
		return s
	case grender.OneMinusSrcColor:
		return 255 - s
	case grender.SrcAlpha:
		return sa
	case grender.OneMinusSrcAlpha:
		return 255 - sa
	case grender.DstAlpha:
		return da
	case grender.OneMinusDstAlpha:
		return 255 - da
	case grender.DstColor:
		return d
	case grender.OneMinusDstColor:
		return 255 - d
	}
	return 255
}

func mulDiv255(a, b uint8) uint8 {
	t := uint32(a)*uint32(b) + 128
	return uint8((t + t>>8) >> 8)
}
