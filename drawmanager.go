package grender

// DrawManager is the GPU facing interface driven by a Renderer. Its methods are
// the only places where GPU state changes.
//
// A Renderer relies on the order of calls only. Implementations may skip
// redundant binds or blend changes but need not.
type DrawManager interface {
	// BindTexture makes t the active sampling source.
	BindTexture(t TextureID)
	// SetBlendFunc sets the active blend function.
	SetBlendFunc(b BlendFunc)
	// SubmitQuads draws the quads in range r of atlas, transformed by m.
	SubmitQuads(atlas *TextureAtlas, r QuadRange, m Affine)
}

// Surface is implemented by DrawManagers whose backing surface or context may
// become unavailable, e.g. while the application is suspended.
type Surface interface {
	Valid() bool
}

// TextureValidator is implemented by DrawManagers that can tell whether a
// texture still exists.
type TextureValidator interface {
	TextureValid(t TextureID) bool
}
