package overlay

// RGB is an 8 bit per channel color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// ColorResolver maps a boundary layer name to the color its points are
// written with.
type ColorResolver interface {
	Resolve(layer string) RGB
}

// UniformColor colors every point the same regardless of layer.
type UniformColor struct {
	Color RGB
}

func (c UniformColor) Resolve(string) RGB {
	return c.Color
}

// PerLayerColor colors points by their source layer, falling back to
// Default for unmapped layers.
type PerLayerColor struct {
	Colors  map[string]RGB
	Default RGB
}

func (c PerLayerColor) Resolve(layer string) RGB {
	if rgb, ok := c.Colors[layer]; ok {
		return rgb
	}
	return c.Default
}
