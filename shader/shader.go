// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader provides the NV12 to RGBA conversion program.
//
// The program exists in two forms that compute the same BT.601
// limited-range conversion: WGSL source for GPU contexts and a Go
// fragment function for the software context.
package shader

import (
	_ "embed"

	"github.com/gogpu/nv12/gfx"
)

//go:embed nv12_to_rgba.wgsl
var nv12ToRGBAWGSL string

// Label is the debug label of the conversion program.
const Label = "nv12_to_rgba"

// Entry points of the WGSL program.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// BT.601 limited-range coefficients shared by both program forms.
const (
	lumaScale  = 1.164383
	lumaOffset = 16.0 / 255.0
	chromaMid  = 128.0 / 255.0
	crToR      = 1.596027
	cbToG      = 0.391762
	crToG      = 0.812968
	cbToB      = 2.017232
)

// WGSL returns the conversion program source.
func WGSL() string {
	return nv12ToRGBAWGSL
}

// NV12ToRGBA returns the descriptor of the conversion program.
// Texture slot 0 holds the luma plane, slot 1 the chroma plane.
func NV12ToRGBA() gfx.ProgramDescriptor {
	return gfx.ProgramDescriptor{
		Label:              Label,
		WGSL:               nv12ToRGBAWGSL,
		VertexEntryPoint:   VertexEntryPoint,
		FragmentEntryPoint: FragmentEntryPoint,
		Fragment:           nv12Fragment,
		TextureSlots:       2,
	}
}

func nv12Fragment(textures []gfx.TextureSampler, u, v float32, _ gfx.ParamReader) [4]float32 {
	y := textures[0].Sample(u, v)[0]
	c := textures[1].Sample(u, v)
	r, g, b := YCbCrToRGB(y, c[0], c[1])
	return [4]float32{r, g, b, 1}
}

// YCbCrToRGB converts normalized limited-range Y'CbCr to clamped RGB.
func YCbCrToRGB(y, cb, cr float32) (r, g, b float32) {
	c := lumaScale * (y - lumaOffset)
	du := cb - chromaMid
	dv := cr - chromaMid
	r = clamp01(c + crToR*dv)
	g = clamp01(c - cbToG*du - crToG*dv)
	b = clamp01(c + cbToB*du)
	return r, g, b
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
