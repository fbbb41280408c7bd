// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nv12/gfx"
	"github.com/gogpu/nv12/shader"
)

// Errors returned by Context construction and program creation.
var (
	// ErrNilDevice is returned when New is called without a device or queue.
	ErrNilDevice = errors.New("halgfx: nil device or queue")

	// ErrNoHALProvider is returned when a DeviceProvider does not expose
	// HAL handles.
	ErrNoHALProvider = errors.New("halgfx: provider does not expose HAL device and queue")

	// ErrNoWGSL is returned by CreateProgram when the descriptor has no
	// WGSL source.
	ErrNoWGSL = errors.New("halgfx: program has no WGSL source")

	// ErrContextDestroyed is returned when a destroyed context is used.
	ErrContextDestroyed = errors.New("halgfx: context destroyed")
)

// Context is a gfx.Context over a wgpu HAL device.
//
// Bindings are tracked on the host and turned into a render pass per
// draw. Every submission is waited on before the call returns, so
// resources may be destroyed as soon as a draw has returned. The device
// and queue are borrowed and never destroyed by the context.
type Context struct {
	opts   options
	device hal.Device
	queue  hal.Queue
	dev    *device

	textures [gfx.MaxTextureSlots]gfx.Texture
	samplers [gfx.MaxTextureSlots]*gfx.SamplerState

	vertexBuffers []gfx.VertexBufferBinding
	targets       []gfx.RenderTargetBinding
	depthStencil  gfx.Texture
	depthFormat   gputypes.TextureFormat

	blend      *gfx.BlendState
	depth      *gfx.DepthStencilState
	rasterizer *gfx.RasterizerState
	viewport   gfx.Viewport

	program     gfx.Program
	pass        *gfx.StateChanges
	passProgram *Program

	// pendingClear holds targets bound through SetRenderTargets that the
	// next render pass writing them clears instead of loading.
	pendingClear map[*RenderTarget]struct{}

	pipelines    *pipelineCache
	samplerCache map[gfx.SamplerState]hal.Sampler
	blank        *Texture
	nextProgram  uint64

	stats     Stats
	destroyed bool
}

var _ gfx.Context = (*Context)(nil)

// Stats counts GPU work issued by a Context.
type Stats struct {
	Draws       uint64
	Uploads     uint64
	Submissions uint64
	Clears      uint64
}

// New creates a context on a HAL device and queue with default state:
// linear wrap sampling, alpha blending, depth testing and back-face
// culling, no bound targets.
func New(halDevice hal.Device, queue hal.Queue, opts ...Option) (*Context, error) {
	if halDevice == nil || queue == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{
		opts:         o,
		device:       halDevice,
		queue:        queue,
		blend:        gfx.BlendAlpha,
		depth:        gfx.DepthStencilDefault,
		rasterizer:   gfx.RasterizerCullBack,
		pendingClear: make(map[*RenderTarget]struct{}),
		pipelines:    newPipelineCache(),
		samplerCache: make(map[gfx.SamplerState]hal.Sampler),
	}
	for i := range c.samplers {
		c.samplers[i] = gfx.SamplerLinearWrap
	}
	c.dev = &device{ctx: c}

	// Empty slots sample a 1x1 transparent texture.
	blank, err := c.newTexture(1, 1, gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst, "halgfx blank")
	if err != nil {
		return nil, fmt.Errorf("halgfx: create blank texture: %w", err)
	}
	if err := c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: blank.tex, Aspect: gputypes.TextureAspectAll},
		make([]byte, 4),
		&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	); err != nil {
		blank.Destroy()
		return nil, fmt.Errorf("halgfx: initialize blank texture: %w", err)
	}
	c.blank = blank

	slogger().Debug("halgfx: context created", "target_format", o.targetFormat)
	return c, nil
}

// NewFromProvider creates a context on the device of a gpucontext
// provider. The provider must expose its HAL device and queue through
// HalDevice and HalQueue. Render targets default to the provider's
// surface format.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Context, error) {
	if provider == nil {
		return nil, ErrNilDevice
	}
	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, ErrNoHALProvider
	}
	halDevice, ok := hp.HalDevice().(hal.Device)
	if !ok || halDevice == nil {
		return nil, ErrNoHALProvider
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrNoHALProvider
	}
	opts = append([]Option{WithTargetFormat(provider.SurfaceFormat())}, opts...)
	return New(halDevice, queue, opts...)
}

// Device returns the low-level device of the context.
func (c *Context) Device() gfx.Device { return c.dev }

// Stats returns the work counters.
func (c *Context) Stats() Stats { return c.stats }

// PipelineCacheStats returns render pipeline cache hits and misses.
func (c *Context) PipelineCacheStats() (hits, misses uint64) {
	return c.pipelines.stats()
}

// Destroy releases the pipelines, samplers and internal textures owned by
// the context. Resources created through it must be destroyed by their
// owners. Safe to call multiple times.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	_ = c.device.WaitIdle()
	c.pipelines.destroyAll(c.device)
	for key, s := range c.samplerCache {
		c.device.DestroySampler(s)
		delete(c.samplerCache, key)
	}
	if c.blank != nil {
		c.blank.Destroy()
		c.blank = nil
	}
	c.destroyed = true
	slogger().Debug("halgfx: context destroyed")
}

// CreateTexture allocates a sampled texture. Color formats R8, RG8, RGBA8
// and BGRA8 plus the depth formats are supported.
func (c *Context) CreateTexture(width, height int, format gputypes.TextureFormat) (gfx.Texture, error) {
	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	if format.HasDepth() {
		usage = gputypes.TextureUsageRenderAttachment
	}
	t, err := c.newTexture(width, height, format, usage, "halgfx texture")
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateRenderTarget allocates a render target and, when requested, its
// depth/stencil attachment.
func (c *Context) CreateRenderTarget(desc RenderTargetDescriptor) (*RenderTarget, error) {
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = c.opts.targetFormat
	}
	if gfx.BytesPerTexel(format) != 4 {
		return nil, fmt.Errorf("create render target: %v: %w", format, gfx.ErrUnsupportedFormat)
	}
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc
	color, err := c.newTexture(desc.Width, desc.Height, format, usage, "halgfx render target")
	if err != nil {
		return nil, fmt.Errorf("create render target: %w", err)
	}
	rt := &RenderTarget{Texture: color, preserve: desc.PreserveContents}
	if desc.DepthFormat != gputypes.TextureFormatUndefined {
		if !desc.DepthFormat.HasDepth() {
			color.Destroy()
			return nil, fmt.Errorf("create render target depth: %v: %w", desc.DepthFormat, gfx.ErrUnsupportedFormat)
		}
		ds, err := c.newTexture(desc.Width, desc.Height, desc.DepthFormat,
			gputypes.TextureUsageRenderAttachment, "halgfx depth stencil")
		if err != nil {
			color.Destroy()
			return nil, fmt.Errorf("create render target depth: %w", err)
		}
		rt.depthStencil = ds
	}
	return rt, nil
}

// CreateVertexBuffer uploads data into a new vertex buffer.
func (c *Context) CreateVertexBuffer(layout gfx.VertexLayout, data []byte) (gfx.VertexBuffer, error) {
	if c.destroyed {
		return nil, ErrContextDestroyed
	}
	if err := validateVertexLayout(layout, len(data)); err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}

	// Queue writes must be a multiple of 4 bytes.
	size := alignUp(len(data), 4)
	padded := data
	if size != len(data) {
		padded = make([]byte, size)
		copy(padded, data)
	}
	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "halgfx vertex buffer",
		Size:  uint64(size),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w: %w", gfx.ErrOutOfMemory, err)
	}
	if err := c.queue.WriteBuffer(buf, 0, padded); err != nil {
		c.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("create vertex buffer: write: %w", err)
	}
	return &VertexBuffer{
		ctx:    c,
		buf:    buf,
		layout: gfx.VertexLayout{Stride: layout.Stride, Attributes: slices.Clone(layout.Attributes)},
		count:  len(data) / layout.Stride,
	}, nil
}

// CreateProgram compiles desc.WGSL to SPIR-V and creates its shader
// module, bind group layout and pipeline layout. Texture slot i is bound
// at binding 2i and its sampler at binding 2i+1 of group 0. The CPU form
// is ignored.
func (c *Context) CreateProgram(desc gfx.ProgramDescriptor) (gfx.Program, error) {
	if c.destroyed {
		return nil, ErrContextDestroyed
	}
	if desc.WGSL == "" {
		return nil, fmt.Errorf("create program %q: %w", desc.Label, ErrNoWGSL)
	}
	if desc.TextureSlots < 0 || desc.TextureSlots > gfx.MaxTextureSlots {
		return nil, fmt.Errorf("create program %q: %d texture slots: %w",
			desc.Label, desc.TextureSlots, gfx.ErrInvalidSize)
	}
	spirv, err := shader.CompileSPIRV(desc.WGSL)
	if err != nil {
		return nil, fmt.Errorf("create program %q: %w", desc.Label, err)
	}

	p := &Program{
		ctx:           c,
		label:         desc.Label,
		slots:         desc.TextureSlots,
		vertexEntry:   desc.VertexEntryPoint,
		fragmentEntry: desc.FragmentEntryPoint,
		params:        maps.Clone(desc.Params),
		passParams:    maps.Clone(desc.PassParams),
	}
	if p.params == nil {
		p.params = make(map[string]float32)
	}

	p.module, err = c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create program %q: shader module: %w", desc.Label, err)
	}
	p.bindLayout, err = c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: bindGroupLayoutEntries(desc.TextureSlots),
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create program %q: bind group layout: %w", desc.Label, err)
	}
	p.layout, err = c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create program %q: pipeline layout: %w", desc.Label, err)
	}

	c.nextProgram++
	p.id = c.nextProgram
	slogger().Debug("halgfx: program created", "label", desc.Label, "spirv_words", len(spirv))
	return p, nil
}

func checkSlot(slot int) {
	if slot < 0 || slot >= gfx.MaxTextureSlots {
		panic(fmt.Sprintf("halgfx: texture slot %d out of range [0, %d)", slot, gfx.MaxTextureSlots))
	}
}

// Texture returns the texture bound at slot, or nil.
func (c *Context) Texture(slot int) gfx.Texture {
	checkSlot(slot)
	return c.textures[slot]
}

// SetTexture binds t at slot.
//
// Binding a destroyed texture panics with an error wrapping
// gfx.ErrDestroyed.
func (c *Context) SetTexture(slot int, t gfx.Texture) {
	checkSlot(slot)
	if t != nil && t.IsDestroyed() {
		panic(fmt.Errorf("halgfx: bind texture at slot %d: %w", slot, gfx.ErrDestroyed))
	}
	c.textures[slot] = t
}

// SamplerState returns the sampler state at slot.
func (c *Context) SamplerState(slot int) *gfx.SamplerState {
	checkSlot(slot)
	return c.samplers[slot]
}

// SetSamplerState sets the sampler state at slot.
func (c *Context) SetSamplerState(slot int, s *gfx.SamplerState) {
	checkSlot(slot)
	c.samplers[slot] = s
}

// VertexBuffers returns a copy of the bound vertex buffers.
func (c *Context) VertexBuffers() []gfx.VertexBufferBinding {
	return slices.Clone(c.vertexBuffers)
}

// SetVertexBuffers replaces the bound vertex buffers.
func (c *Context) SetVertexBuffers(bindings ...gfx.VertexBufferBinding) {
	c.vertexBuffers = slices.Clone(bindings)
}

// RenderTargets returns a copy of the bound render targets.
func (c *Context) RenderTargets() []gfx.RenderTargetBinding {
	return slices.Clone(c.targets)
}

// SetRenderTargets binds targets together with the depth/stencil
// attachment of the first one. Targets that do not preserve their
// contents are cleared by the next render pass that writes them, and the
// viewport is reset to cover the first target, or to empty when nothing
// is bound.
func (c *Context) SetRenderTargets(targets ...gfx.RenderTargetBinding) {
	var ds gfx.Texture
	dsFormat := gputypes.TextureFormatUndefined
	if len(targets) > 0 && targets[0].Target != nil {
		ds = targets[0].Target.DepthStencilBuffer()
		dsFormat = targets[0].Target.DepthStencilFormat()
	}
	c.bindTargets(targets, ds, dsFormat)

	for _, b := range targets {
		rt, ok := b.Target.(*RenderTarget)
		if !ok || rt.destroyed || rt.preserve {
			continue
		}
		c.pendingClear[rt] = struct{}{}
	}

	c.viewport = gfx.Viewport{}
	if len(targets) > 0 && targets[0].Target != nil {
		c.viewport = gfx.NewViewport(0, 0, targets[0].Target.Width(), targets[0].Target.Height())
	}
}

func (c *Context) bindTargets(targets []gfx.RenderTargetBinding, ds gfx.Texture, format gputypes.TextureFormat) {
	if len(targets) == 0 {
		c.targets = nil
	} else {
		c.targets = slices.Clone(targets)
	}
	c.depthStencil = ds
	c.depthFormat = format
}

// ClearPending reports whether rt will be cleared by the next render
// pass that writes it.
func (c *Context) ClearPending(rt *RenderTarget) bool {
	_, ok := c.pendingClear[rt]
	return ok
}

// BlendState returns the bound blend state.
func (c *Context) BlendState() *gfx.BlendState { return c.blend }

// SetBlendState binds a blend state.
func (c *Context) SetBlendState(s *gfx.BlendState) { c.blend = s }

// DepthStencilState returns the bound depth-stencil state.
func (c *Context) DepthStencilState() *gfx.DepthStencilState { return c.depth }

// SetDepthStencilState binds a depth-stencil state.
func (c *Context) SetDepthStencilState(s *gfx.DepthStencilState) { c.depth = s }

// RasterizerState returns the bound rasterizer state.
func (c *Context) RasterizerState() *gfx.RasterizerState { return c.rasterizer }

// SetRasterizerState binds a rasterizer state.
func (c *Context) SetRasterizerState(s *gfx.RasterizerState) { c.rasterizer = s }

// Viewport returns the current viewport.
func (c *Context) Viewport() gfx.Viewport { return c.viewport }

// Program returns the active program, or nil.
func (c *Context) Program() gfx.Program { return c.program }

// ApplyProgram makes p the active program without starting a pass. A nil
// p leaves no program active. An active pass restores the program it
// replaced when it ends, whatever was applied meanwhile.
func (c *Context) ApplyProgram(p gfx.Program) error {
	if p == nil {
		c.program = nil
		return nil
	}
	prog, err := c.ownProgram(p)
	if err != nil {
		return fmt.Errorf("apply program: %w", err)
	}
	c.program = prog
	return nil
}

// DepthStencil returns the bound depth/stencil attachment and its format.
func (c *Context) DepthStencil() (gfx.Texture, gputypes.TextureFormat) {
	return c.depthStencil, c.depthFormat
}

// sampler returns the HAL sampler for s, creating it on first use.
// Samplers are shared by every state with the same filtering and
// addressing.
func (c *Context) sampler(s *gfx.SamplerState) (hal.Sampler, error) {
	if s == nil {
		s = gfx.SamplerLinearWrap
	}
	key := *s
	key.Name = ""
	if smp, ok := c.samplerCache[key]; ok {
		return smp, nil
	}
	smp, err := c.device.CreateSampler(samplerDescriptor(s))
	if err != nil {
		return nil, fmt.Errorf("create sampler %s: %w", s.Name, err)
	}
	c.samplerCache[key] = smp
	return smp, nil
}

func validateVertexLayout(layout gfx.VertexLayout, dataLen int) error {
	if layout.Stride <= 0 || dataLen == 0 || dataLen%layout.Stride != 0 {
		return fmt.Errorf("stride %d, %d bytes: %w", layout.Stride, dataLen, gfx.ErrInvalidSize)
	}
	for _, a := range layout.Attributes {
		size := vertexFormatSize(a.Format)
		if size == 0 {
			return fmt.Errorf("attribute %d format %v: %w", a.Location, a.Format, gfx.ErrUnsupportedFormat)
		}
		if a.Offset < 0 || a.Offset+size > layout.Stride {
			return fmt.Errorf("attribute %d exceeds stride: %w", a.Location, gfx.ErrInvalidSize)
		}
	}
	return nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
