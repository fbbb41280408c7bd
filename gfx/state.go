// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"github.com/gogpu/gputypes"
)

// SamplerState is the filtering and addressing used when a program reads
// from the texture bound at the same slot.
type SamplerState struct {
	Name         string
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
}

// BlendComponent describes how one channel group is blended.
type BlendComponent struct {
	SrcFactor gputypes.BlendFactor
	DstFactor gputypes.BlendFactor
	Operation gputypes.BlendOperation
}

// BlendState describes color blending.
// When Enabled is false the source replaces the destination.
type BlendState struct {
	Name    string
	Enabled bool
	Color   BlendComponent
	Alpha   BlendComponent
}

// DepthStencilState describes the depth test.
// Stencil operations are not modelled; a bound stencil attachment is kept
// but never written.
type DepthStencilState struct {
	Name              string
	DepthEnabled      bool
	DepthWriteEnabled bool
	DepthCompare      gputypes.CompareFunction
}

// RasterizerState describes primitive rasterization.
// Counter-clockwise primitives in normalized device coordinates are front
// facing.
type RasterizerState struct {
	Name     string
	CullMode gputypes.CullMode
}

// Shared presets. They are compared by identity and must not be modified.
var (
	SamplerLinearClamp = &SamplerState{
		Name:         "LinearClamp",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	}
	SamplerLinearWrap = &SamplerState{
		Name:         "LinearWrap",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	}
	SamplerPointClamp = &SamplerState{
		Name:         "PointClamp",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
	}
	SamplerPointWrap = &SamplerState{
		Name:         "PointWrap",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
	}

	BlendOpaque = &BlendState{
		Name: "Opaque",
		Color: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorZero,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorZero,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	BlendAlpha = &BlendState{
		Name:    "AlphaBlend",
		Enabled: true,
		Color: BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	BlendAdditive = &BlendState{
		Name:    "Additive",
		Enabled: true,
		Color: BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}

	DepthStencilNone = &DepthStencilState{
		Name:         "None",
		DepthCompare: gputypes.CompareFunctionAlways,
	}
	DepthStencilDefault = &DepthStencilState{
		Name:              "Default",
		DepthEnabled:      true,
		DepthWriteEnabled: true,
		DepthCompare:      gputypes.CompareFunctionLessEqual,
	}
	DepthStencilRead = &DepthStencilState{
		Name:         "DepthRead",
		DepthEnabled: true,
		DepthCompare: gputypes.CompareFunctionLessEqual,
	}

	RasterizerCullNone = &RasterizerState{
		Name:     "CullNone",
		CullMode: gputypes.CullModeNone,
	}
	RasterizerCullBack = &RasterizerState{
		Name:     "CullBack",
		CullMode: gputypes.CullModeBack,
	}
	RasterizerCullFront = &RasterizerState{
		Name:     "CullFront",
		CullMode: gputypes.CullModeFront,
	}
)

// TextureSampler reads filtered texels from a bound texture.
type TextureSampler interface {
	// Sample returns RGBA in [0, 1] at normalized coordinates (u, v).
	// Channels absent from the texture format read as 0, alpha as 1.
	Sample(u, v float32) [4]float32
}

// FragmentFunc is the CPU form of a fragment shader.
// textures holds one sampler per program texture slot.
type FragmentFunc func(textures []TextureSampler, u, v float32, params ParamReader) [4]float32

// ParamReader exposes program parameters to a FragmentFunc.
type ParamReader interface {
	Param(name string) (float32, bool)
}

// ProgramDescriptor describes a shader program.
//
// GPU implementations compile WGSL; CPU implementations run Fragment.
// A descriptor meant for both carries both forms of the same program.
type ProgramDescriptor struct {
	Label string

	// WGSL is the shader source with VertexEntryPoint and FragmentEntryPoint.
	WGSL               string
	VertexEntryPoint   string
	FragmentEntryPoint string

	// Fragment is the CPU implementation.
	Fragment FragmentFunc

	// TextureSlots is the number of texture/sampler pairs the program reads,
	// starting at slot 0.
	TextureSlots int

	// Params holds initial parameter values.
	Params map[string]float32

	// PassParams are assigned when a pass begins and restored when it ends.
	PassParams map[string]float32
}

// StateChanges is the scratch buffer of the pass-with-restore protocol.
//
// The caller allocates it once and hands it to every BeginPassRestore. The
// device records what the pass replaced; EndPassRestore consumes the
// record. Its contents are meaningful to the device only.
type StateChanges struct {
	// Program is the program active before the pass began.
	Program Program

	// Params holds the previous values of parameters the pass assigned.
	Params map[string]float32

	// Unset lists parameters the pass introduced.
	Unset []string

	// Active is true between begin and end.
	Active bool
}

// Reset empties the record for reuse.
func (c *StateChanges) Reset() {
	c.Program = nil
	clear(c.Params)
	c.Unset = c.Unset[:0]
	c.Active = false
}

// BytesPerTexel returns the texel size of the uncompressed color formats
// used by the compositor, or 0 for anything else.
func BytesPerTexel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRG8Unorm:
		return 2
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	default:
		return 0
	}
}
