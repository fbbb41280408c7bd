// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"github.com/gogpu/gputypes"
)

// MaxTextureSlots is the number of texture/sampler slots every Context
// must provide.
const MaxTextureSlots = 16

// Resource is implemented by every object created by a Context.
type Resource interface {
	// Destroy releases the underlying resources. Calling Destroy more than
	// once is a no-op.
	Destroy()

	// IsDestroyed reports whether Destroy has been called. Holders of a
	// handle they do not own check this before reusing it.
	IsDestroyed() bool
}

// Texture is a 2D texture.
type Texture interface {
	Resource

	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Format returns the texel format.
	Format() gputypes.TextureFormat
}

// RenderTarget is a texture that can be bound as a draw destination.
//
// A render target may carry a depth/stencil attachment that is bound
// together with it when it is the first target of a binding list.
type RenderTarget interface {
	Texture

	// DepthStencilBuffer returns the attached depth/stencil texture, or nil.
	DepthStencilBuffer() Texture

	// DepthStencilFormat returns the format of the depth/stencil attachment,
	// or gputypes.TextureFormatUndefined when there is none.
	DepthStencilFormat() gputypes.TextureFormat
}

// VertexBuffer is an immutable GPU vertex buffer.
type VertexBuffer interface {
	Resource

	// Layout returns the vertex layout the buffer was created with.
	Layout() VertexLayout

	// VertexCount returns the number of vertices stored in the buffer.
	VertexCount() int
}

// Program is a compiled shader program.
type Program interface {
	Resource

	// Label returns the debug label given at creation.
	Label() string

	// Param returns the current value of a named program parameter.
	Param(name string) (float32, bool)

	// SetParam assigns a named program parameter.
	SetParam(name string, value float32)
}

// Context is the high-level graphics context of the host application.
//
// A Context is not safe for concurrent use. All calls must happen on the
// thread that owns it.
type Context interface {
	// Device returns the low-level device underneath this context.
	Device() Device

	// CreateTexture allocates a 2D texture.
	CreateTexture(width, height int, format gputypes.TextureFormat) (Texture, error)

	// CreateVertexBuffer allocates a vertex buffer initialized with data.
	// len(data) must be a multiple of layout.Stride.
	CreateVertexBuffer(layout VertexLayout, data []byte) (VertexBuffer, error)

	// CreateProgram compiles a shader program.
	CreateProgram(desc ProgramDescriptor) (Program, error)

	// Texture returns the texture bound at slot, or nil.
	Texture(slot int) Texture

	// SetTexture binds a texture at slot. Binding a destroyed texture is
	// undefined behavior.
	SetTexture(slot int, t Texture)

	// SamplerState returns the sampler configuration at slot.
	SamplerState(slot int) *SamplerState

	// SetSamplerState sets the sampler configuration at slot.
	SetSamplerState(slot int, s *SamplerState)

	// VertexBuffers returns a copy of the bound vertex buffer list.
	VertexBuffers() []VertexBufferBinding

	// SetVertexBuffers replaces the bound vertex buffer list.
	SetVertexBuffers(bindings ...VertexBufferBinding)

	// RenderTargets returns a copy of the bound render target list.
	RenderTargets() []RenderTargetBinding

	// SetRenderTargets binds render targets. Implementations may clear
	// targets that do not preserve their contents and reset the viewport.
	// Use Device.SetRenderTargets to bind without side effects.
	SetRenderTargets(targets ...RenderTargetBinding)

	// BlendState returns the bound blend state.
	BlendState() *BlendState

	// SetBlendState binds a blend state.
	SetBlendState(s *BlendState)

	// DepthStencilState returns the bound depth-stencil state.
	DepthStencilState() *DepthStencilState

	// SetDepthStencilState binds a depth-stencil state.
	SetDepthStencilState(s *DepthStencilState)

	// RasterizerState returns the bound rasterizer state.
	RasterizerState() *RasterizerState

	// SetRasterizerState binds a rasterizer state.
	SetRasterizerState(s *RasterizerState)

	// Viewport returns the current viewport.
	Viewport() Viewport

	// Program returns the active program, or nil.
	Program() Program

	// ApplyProgram makes p the active program outside any restore pass.
	// A nil p leaves no program active.
	ApplyProgram(p Program) error

	// DrawPrimitives draws primitiveCount primitives from the bound vertex
	// buffers starting at startVertex, using the active program.
	DrawPrimitives(topology gputypes.PrimitiveTopology, startVertex, primitiveCount int) error
}

// Device is the low-level device underneath a Context.
type Device interface {
	// SetRenderTargets binds exactly the given targets with the given
	// depth/stencil attachment, without clearing anything and without
	// touching the viewport. A nil or empty list unbinds all targets.
	SetRenderTargets(targets []RenderTargetBinding, depthStencil Texture, depthFormat gputypes.TextureFormat)

	// SetViewport sets the viewport as given.
	SetViewport(v Viewport)

	// DepthStencil returns the bound depth/stencil attachment and its
	// format, which need not be the first target's own attachment.
	DepthStencil() (Texture, gputypes.TextureFormat)

	// BeginPassRestore makes p the active program and applies its pass
	// configuration, recording the previously active program and
	// everything else it replaces into changes. Restore passes do not
	// nest.
	BeginPassRestore(p Program, changes *StateChanges) error

	// EndPassRestore undoes what the matching BeginPassRestore changed.
	EndPassRestore(p Program) error

	// UploadNV12 copies an NV12 frame into a luma (R8) texture and a chroma
	// (RG8, half size) texture. data holds the luma plane immediately
	// followed by the interleaved chroma plane.
	UploadNV12(luma, chroma Texture, data []byte) error
}

// VertexBufferBinding binds a vertex buffer with a vertex offset.
type VertexBufferBinding struct {
	Buffer       VertexBuffer
	VertexOffset int
}

// RenderTargetBinding binds a render target.
type RenderTargetBinding struct {
	Target RenderTarget
}

// Viewport is a rectangle of the bound render targets plus depth range.
type Viewport struct {
	X, Y          int
	Width, Height int
	MinDepth      float32
	MaxDepth      float32
}

// NewViewport returns a viewport with the full [0, 1] depth range.
func NewViewport(x, y, width, height int) Viewport {
	return Viewport{X: x, Y: y, Width: width, Height: height, MinDepth: 0, MaxDepth: 1}
}

// VertexLayout describes interleaved vertex data.
type VertexLayout struct {
	// Stride is the byte size of one vertex.
	Stride int

	// Attributes lists the vertex attributes in shader location order.
	Attributes []VertexAttribute
}

// VertexAttribute describes one vertex attribute.
type VertexAttribute struct {
	Location uint32
	Format   gputypes.VertexFormat
	Offset   int
}

// SameVertexBuffers reports whether two binding lists are identical.
func SameVertexBuffers(a, b []VertexBufferBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SameRenderTargets reports whether two binding lists are identical.
func SameRenderTargets(a, b []RenderTargetBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
