package rsx

// Hardware limits of the NV40 programmable units.
const (
	MaxVertexInstructions   = 512
	MaxFragmentInstructions = 4096
	MaxVertexConstants      = 468
	MaxTemps                = 32
	MaxVertexInputs         = 16
	MaxTextureUnits         = 16
)

// Options configures the instruction compilers.
type Options struct {
	// MaxVertexInstructions caps the vertex program length.
	MaxVertexInstructions int

	// MaxFragmentInstructions caps the fragment program length in hardware
	// slots, inline constant data included.
	MaxFragmentInstructions int

	// MaxVertexConstants caps the number of constant slots a vertex
	// program may bind.
	MaxVertexConstants int
}

// DefaultOptions returns the hardware limits.
func DefaultOptions() Options {
	return Options{
		MaxVertexInstructions:   MaxVertexInstructions,
		MaxFragmentInstructions: MaxFragmentInstructions,
		MaxVertexConstants:      MaxVertexConstants,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxVertexInstructions <= 0 {
		o.MaxVertexInstructions = d.MaxVertexInstructions
	}
	if o.MaxFragmentInstructions <= 0 {
		o.MaxFragmentInstructions = d.MaxFragmentInstructions
	}
	if o.MaxVertexConstants <= 0 {
		o.MaxVertexConstants = d.MaxVertexConstants
	}
	return o
}
