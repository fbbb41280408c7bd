// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/nv12/gfx"
	"github.com/gogpu/nv12/shader"
)

// recorder is a noop device that records what the context asks of it.
type recorder struct {
	*noop.Device
	passes    []hal.RenderPassDescriptor
	pipelines []*hal.RenderPipelineDescriptor
	viewports [][4]float32
	draws     [][4]uint32
	samplers  int
}

func (r *recorder) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	r.pipelines = append(r.pipelines, desc)
	return r.Device.CreateRenderPipeline(desc)
}

func (r *recorder) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	r.samplers++
	return r.Device.CreateSampler(desc)
}

func (r *recorder) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := r.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &recordingEncoder{CommandEncoder: enc, r: r}, nil
}

type recordingEncoder struct {
	hal.CommandEncoder
	r *recorder
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.r.passes = append(e.r.passes, *desc)
	return &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), r: e.r}
}

type recordingPass struct {
	hal.RenderPassEncoder
	r *recorder
}

func (p *recordingPass) SetViewport(x, y, w, h, minDepth, maxDepth float32) {
	p.r.viewports = append(p.r.viewports, [4]float32{x, y, w, h})
	p.RenderPassEncoder.SetViewport(x, y, w, h, minDepth, maxDepth)
}

func (p *recordingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.r.draws = append(p.r.draws, [4]uint32{vertexCount, instanceCount, firstVertex, firstInstance})
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

var quadLayout = gfx.VertexLayout{
	Stride: 16,
	Attributes: []gfx.VertexAttribute{
		{Location: 0, Format: gputypes.VertexFormatFloat32x2, Offset: 0},
		{Location: 1, Format: gputypes.VertexFormatFloat32x2, Offset: 8},
	},
}

func floats(vals ...float32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func newContext(t *testing.T, opts ...Option) (*Context, *recorder) {
	t.Helper()
	rec := &recorder{Device: &noop.Device{}}
	c, err := New(rec, &noop.Queue{}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Destroy)
	return c, rec
}

func newTarget(t *testing.T, c *Context, desc RenderTargetDescriptor) *RenderTarget {
	t.Helper()
	rt, err := c.CreateRenderTarget(desc)
	if err != nil {
		t.Fatalf("CreateRenderTarget() error = %v", err)
	}
	return rt
}

func newQuad(t *testing.T, c *Context) gfx.VertexBuffer {
	t.Helper()
	vb, err := c.CreateVertexBuffer(quadLayout, floats(
		-1, -1, 0, 1,
		1, -1, 1, 1,
		-1, 1, 0, 0,
		1, 1, 1, 0,
	))
	if err != nil {
		t.Fatalf("CreateVertexBuffer() error = %v", err)
	}
	return vb
}

func newProgram(t *testing.T, c *Context) gfx.Program {
	t.Helper()
	p, err := c.CreateProgram(shader.NV12ToRGBA())
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
	return p
}

// draw runs one pass of p over the quad.
func draw(t *testing.T, c *Context, p gfx.Program) {
	t.Helper()
	changes := &gfx.StateChanges{}
	if err := c.Device().BeginPassRestore(p, changes); err != nil {
		t.Fatalf("BeginPassRestore() error = %v", err)
	}
	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleStrip, 0, 2); err != nil {
		t.Fatalf("DrawPrimitives() error = %v", err)
	}
	if err := c.Device().EndPassRestore(p); err != nil {
		t.Fatalf("EndPassRestore() error = %v", err)
	}
}

type halProvider struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

func (p *halProvider) Device() gpucontext.Device { return p.device }
func (p *halProvider) Queue() gpucontext.Queue { return p.queue }
func (p *halProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (p *halProvider) Adapter() gpucontext.Adapter { return nil }
func (p *halProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }
func (p *halProvider) HalDevice() any { return p.device }
func (p *halProvider) HalQueue() any { return p.queue }

type plainProvider struct{ halProvider }

func (p *plainProvider) HalDevice() {}

func TestNew(t *testing.T) {
	if _, err := New(nil, &noop.Queue{}); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil device) error = %v, want ErrNilDevice", err)
	}
	if _, err := New(&noop.Device{}, nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil queue) error = %v, want ErrNilDevice", err)
	}

	c, _ := newContext(t)
	if c.BlendState() != gfx.BlendAlpha || c.DepthStencilState() != gfx.DepthStencilDefault ||
		c.RasterizerState() != gfx.RasterizerCullBack {
		t.Error("unexpected default pipeline state")
	}
	for slot := 0; slot < gfx.MaxTextureSlots; slot++ {
		if c.SamplerState(slot) != gfx.SamplerLinearWrap {
			t.Fatalf("slot %d default sampler = %v", slot, c.SamplerState(slot).Name)
		}
	}
}

func TestNewFromProvider(t *testing.T) {
	p := &halProvider{device: &noop.Device{}, queue: &noop.Queue{}, format: gputypes.TextureFormatBGRA8Unorm}
	c, err := NewFromProvider(p)
	if err != nil {
		t.Fatalf("NewFromProvider() error = %v", err)
	}
	defer c.Destroy()

	rt := newTarget(t, c, RenderTargetDescriptor{Width: 4, Height: 4})
	if rt.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("default target format = %v, want surface format", rt.Format())
	}

	c2, err := NewFromProvider(p, WithTargetFormat(gputypes.TextureFormatRGBA8Unorm))
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Destroy()
	if rt := newTarget(t, c2, RenderTargetDescriptor{Width: 4, Height: 4}); rt.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("explicit option lost to surface format: %v", rt.Format())
	}

	if _, err := NewFromProvider(&plainProvider{}); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("NewFromProvider(no HAL) error = %v, want ErrNoHALProvider", err)
	}
	if _, err := NewFromProvider(&halProvider{queue: &noop.Queue{}}); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("NewFromProvider(nil device) error = %v, want ErrNoHALProvider", err)
	}
}

func TestCreateTexture(t *testing.T) {
	c, _ := newContext(t)
	tests := []struct {
		name    string
		w, h    int
		format  gputypes.TextureFormat
		wantErr error
	}{
		{"luma", 4, 4, gputypes.TextureFormatR8Unorm, nil},
		{"chroma", 2, 2, gputypes.TextureFormatRG8Unorm, nil},
		{"depth", 4, 4, gputypes.TextureFormatDepth24PlusStencil8, nil},
		{"zero width", 0, 4, gputypes.TextureFormatR8Unorm, gfx.ErrInvalidSize},
		{"negative height", 4, -1, gputypes.TextureFormatR8Unorm, gfx.ErrInvalidSize},
		{"undefined", 4, 4, gputypes.TextureFormatUndefined, gfx.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := c.CreateTexture(tt.w, tt.h, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateTexture() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tex.Width() != tt.w || tex.Height() != tt.h || tex.Format() != tt.format {
				t.Errorf("texture = %dx%d %v", tex.Width(), tex.Height(), tex.Format())
			}
			tex.Destroy()
			tex.Destroy()
			if !tex.IsDestroyed() {
				t.Error("IsDestroyed() = false after Destroy")
			}
		})
	}
}

func TestCreateRenderTargetDepth(t *testing.T) {
	c, _ := newContext(t)
	rt := newTarget(t, c, RenderTargetDescriptor{Width: 4, Height: 4, DepthFormat: gputypes.TextureFormatDepth32Float})
	if rt.DepthStencilBuffer() == nil || rt.DepthStencilFormat() != gputypes.TextureFormatDepth32Float {
		t.Error("depth attachment missing")
	}
	if _, err := c.CreateRenderTarget(RenderTargetDescriptor{Width: 4, Height: 4, DepthFormat: gputypes.TextureFormatR8Unorm}); !errors.Is(err, gfx.ErrUnsupportedFormat) {
		t.Errorf("color depth format error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := c.CreateRenderTarget(RenderTargetDescriptor{Width: 4, Height: 4, Format: gputypes.TextureFormatR8Unorm}); !errors.Is(err, gfx.ErrUnsupportedFormat) {
		t.Errorf("R8 target error = %v, want ErrUnsupportedFormat", err)
	}

	plain := newTarget(t, c, RenderTargetDescriptor{Width: 4, Height: 4})
	if plain.DepthStencilBuffer() != nil {
		t.Error("DepthStencilBuffer() must be a nil interface without attachment")
	}
	rt.Destroy()
	if !rt.IsDestroyed() || !rt.depthStencil.IsDestroyed() {
		t.Error("Destroy did not release the attachment")
	}
}

func TestCreateProgram(t *testing.T) {
	c, _ := newContext(t)

	desc := shader.NV12ToRGBA()
	desc.WGSL = ""
	if _, err := c.CreateProgram(desc); !errors.Is(err, ErrNoWGSL) {
		t.Errorf("CreateProgram(no WGSL) error = %v, want ErrNoWGSL", err)
	}
	desc = shader.NV12ToRGBA()
	desc.TextureSlots = gfx.MaxTextureSlots + 1
	if _, err := c.CreateProgram(desc); !errors.Is(err, gfx.ErrInvalidSize) {
		t.Errorf("CreateProgram(17 slots) error = %v, want ErrInvalidSize", err)
	}

	p := newProgram(t, c)
	if p.Label() != shader.Label {
		t.Errorf("Label() = %q", p.Label())
	}
	p.SetParam("gain", 2)
	if v, ok := p.Param("gain"); !ok || v != 2 {
		t.Errorf("Param(gain) = %v, %v", v, ok)
	}
}

func TestCreateVertexBuffer(t *testing.T) {
	c, _ := newContext(t)
	if _, err := c.CreateVertexBuffer(quadLayout, make([]byte, 20)); !errors.Is(err, gfx.ErrInvalidSize) {
		t.Errorf("ragged data error = %v, want ErrInvalidSize", err)
	}
	bad := gfx.VertexLayout{Stride: 8, Attributes: []gfx.VertexAttribute{{Format: gputypes.VertexFormatFloat32x4}}}
	if _, err := c.CreateVertexBuffer(bad, make([]byte, 16)); !errors.Is(err, gfx.ErrInvalidSize) {
		t.Errorf("attribute past stride error = %v, want ErrInvalidSize", err)
	}
	vb := newQuad(t, c)
	if vb.VertexCount() != 4 || vb.Layout().Stride != 16 {
		t.Errorf("VertexCount() = %d, Stride = %d", vb.VertexCount(), vb.Layout().Stride)
	}
}

func TestDrawLoadOps(t *testing.T) {
	c, rec := newContext(t)
	p := newProgram(t, c)
	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: newQuad(t, c)})
	a := newTarget(t, c, RenderTargetDescriptor{Width: 8, Height: 8})
	b := newTarget(t, c, RenderTargetDescriptor{Width: 8, Height: 8})

	c.SetRenderTargets(gfx.RenderTargetBinding{Target: a})
	if !c.ClearPending(a) {
		t.Fatal("high-level binding did not schedule a clear")
	}

	// A low-level rebind in between keeps the pending clear of a.
	c.Device().SetRenderTargets([]gfx.RenderTargetBinding{{Target: b}}, nil, gputypes.TextureFormatUndefined)
	draw(t, c, p)
	c.Device().SetRenderTargets([]gfx.RenderTargetBinding{{Target: a}}, nil, gputypes.TextureFormatUndefined)
	draw(t, c, p)
	draw(t, c, p)

	want := []gputypes.LoadOp{gputypes.LoadOpLoad, gputypes.LoadOpClear, gputypes.LoadOpLoad}
	if len(rec.passes) != len(want) {
		t.Fatalf("%d passes, want %d", len(rec.passes), len(want))
	}
	for i, op := range want {
		if got := rec.passes[i].ColorAttachments[0].LoadOp; got != op {
			t.Errorf("pass %d LoadOp = %v, want %v", i, got, op)
		}
	}
	if c.ClearPending(a) {
		t.Error("clear still pending after the pass")
	}
	if got := c.Stats().Clears; got != 1 {
		t.Errorf("Stats().Clears = %d, want 1", got)
	}
}

func TestDrawPreservingTargetLoads(t *testing.T) {
	c, rec := newContext(t)
	p := newProgram(t, c)
	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: newQuad(t, c)})
	rt := newTarget(t, c, RenderTargetDescriptor{Width: 8, Height: 8, PreserveContents: true})

	c.SetRenderTargets(gfx.RenderTargetBinding{Target: rt})
	draw(t, c, p)
	if got := rec.passes[0].ColorAttachments[0].LoadOp; got != gputypes.LoadOpLoad {
		t.Errorf("LoadOp = %v, want Load", got)
	}
}

func TestDrawDepthAttachment(t *testing.T) {
	c, rec := newContext(t)
	p := newProgram(t, c)
	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: newQuad(t, c)})
	rt := newTarget(t, c, RenderTargetDescriptor{Width: 8, Height: 8, DepthFormat: gputypes.TextureFormatDepth24PlusStencil8})

	c.SetRenderTargets(gfx.RenderTargetBinding{Target: rt})
	draw(t, c, p)

	ds := rec.passes[0].DepthStencilAttachment
	if ds == nil {
		t.Fatal("no depth attachment in pass")
	}
	if ds.DepthLoadOp != gputypes.LoadOpClear || ds.StencilLoadOp != gputypes.LoadOpClear {
		t.Errorf("depth/stencil load ops = %v/%v, want Clear", ds.DepthLoadOp, ds.StencilLoadOp)
	}
	pds := rec.pipelines[0].DepthStencil
	if pds == nil || pds.Format != gputypes.TextureFormatDepth24PlusStencil8 {
		t.Fatalf("pipeline depth state = %+v", pds)
	}
	if !pds.DepthWriteEnabled || pds.DepthCompare != gputypes.CompareFunctionLessEqual {
		t.Errorf("pipeline depth test = write %v compare %v", pds.DepthWriteEnabled, pds.DepthCompare)
	}
}

func TestDrawViewportAndRange(t *testing.T) {
	c, rec := newContext(t)
	p := newProgram(t, c)
	vb := newQuad(t, c)
	rt := newTarget(t, c, RenderTargetDescriptor{Width: 8, Height: 8})
	c.SetRenderTargets(gfx.RenderTargetBinding{Target: rt})
	c.Device().SetViewport(gfx.NewViewport(2, 1, 4, 3))
	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: vb})

	draw(t, c, p)
	if got := rec.viewports[0]; got != [4]float32{2, 1, 4, 3} {
		t.Errorf("viewport = %v", got)
	}
	if got := rec.draws[0]; got != [4]uint32{4, 1, 0, 0} {
		t.Errorf("draw = %v, want 4 vertices", got)
	}

	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: vb, VertexOffset: 1})
	changes := &gfx.StateChanges{}
	if err := c.Device().BeginPassRestore(p, changes); err != nil {
		t.Fatal(err)
	}
	err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleStrip, 0, 2)
	if !errors.Is(err, gfx.ErrVertexRange) {
		t.Errorf("offset draw error = %v, want ErrVertexRange", err)
	}
	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleList, 0, 1); err != nil {
		t.Errorf("DrawPrimitives(list) error = %v", err)
	}
	if err := c.Device().EndPassRestore(p); err != nil {
		t.Fatal(err)
	}
}

func TestDrawErrors(t *testing.T) {
	c, _ := newContext(t)
	other, _ := newContext(t)
	p := newProgram(t, c)
	vb := newQuad(t, c)
	rt := newTarget(t, c, RenderTargetDescriptor{Width: 4, Height: 4})
	foreign := newTarget(t, other, RenderTargetDescriptor{Width: 4, Height: 4})

	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleStrip, 0, 2); !errors.Is(err, gfx.ErrNoProgram) {
		t.Errorf("draw outside pass error = %v, want ErrNoProgram", err)
	}

	changes := &gfx.StateChanges{}
	if err := c.Device().BeginPassRestore(p, changes); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Device().EndPassRestore(p) }()

	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleStrip, 0, 2); !errors.Is(err, gfx.ErrNoRenderTarget) {
		t.Errorf("no target error = %v, want ErrNoRenderTarget", err)
	}
	c.SetRenderTargets(gfx.RenderTargetBinding{Target: rt})
	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleStrip, 0, 2); !errors.Is(err, gfx.ErrNoVertexBuffer) {
		t.Errorf("no vertex buffer error = %v, want ErrNoVertexBuffer", err)
	}
	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: vb})
	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyPointList, 0, 1); !errors.Is(err, gfx.ErrTopology) {
		t.Errorf("point list error = %v, want ErrTopology", err)
	}
	c.SetRenderTargets(gfx.RenderTargetBinding{Target: foreign})
	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleStrip, 0, 2); !errors.Is(err, gfx.ErrForeignResource) {
		t.Errorf("foreign target error = %v, want ErrForeignResource", err)
	}
	c.SetRenderTargets(gfx.RenderTargetBinding{Target: rt})
	vb.Destroy()
	if err := c.DrawPrimitives(gputypes.PrimitiveTopologyTriangleStrip, 0, 2); !errors.Is(err, gfx.ErrDestroyed) {
		t.Errorf("destroyed vertex buffer error = %v, want ErrDestroyed", err)
	}
}

func TestPipelineCache(t *testing.T) {
	c, rec := newContext(t)
	p := newProgram(t, c)
	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: newQuad(t, c)})
	c.SetRenderTargets(gfx.RenderTargetBinding{Target: newTarget(t, c, RenderTargetDescriptor{Width: 4, Height: 4})})

	draw(t, c, p)
	draw(t, c, p)
	if len(rec.pipelines) != 1 {
		t.Fatalf("%d pipelines after identical draws, want 1", len(rec.pipelines))
	}
	if hits, misses := c.PipelineCacheStats(); hits != 1 || misses != 1 {
		t.Errorf("PipelineCacheStats() = %d hits, %d misses", hits, misses)
	}

	c.SetBlendState(gfx.BlendOpaque)
	draw(t, c, p)
	if len(rec.pipelines) != 2 {
		t.Fatalf("%d pipelines after blend change, want 2", len(rec.pipelines))
	}
	if rec.pipelines[1].Fragment.Targets[0].Blend != nil {
		t.Error("opaque pipeline has blending enabled")
	}

	p.Destroy()
	if n := c.pipelines.size(); n != 0 {
		t.Errorf("%d pipelines cached after program destroyed", n)
	}
}

type stubPipeline struct{ id int }

func (*stubPipeline) Destroy() {}

func TestPipelineCacheHashCollision(t *testing.T) {
	pc := newPipelineCache()
	a := pipelineKey{program: 1, colorFormats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm}}
	b := pipelineKey{program: 2, colorFormats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm}}
	const h = 42

	pa, err := pc.getOrCreateHashed(h, &a, func() (hal.RenderPipeline, error) { return &stubPipeline{id: 1}, nil })
	if err != nil {
		t.Fatal(err)
	}
	pb, err := pc.getOrCreateHashed(h, &b, func() (hal.RenderPipeline, error) { return &stubPipeline{id: 2}, nil })
	if err != nil {
		t.Fatal(err)
	}
	if pa == pb {
		t.Fatal("colliding keys share a pipeline")
	}
	again, _ := pc.getOrCreateHashed(h, &a, func() (hal.RenderPipeline, error) {
		t.Error("cached key rebuilt")
		return &stubPipeline{id: 3}, nil
	})
	if again != pa {
		t.Error("lookup returned the other key's pipeline")
	}
	if n := pc.size(); n != 2 {
		t.Errorf("size() = %d, want 2", n)
	}

	pc.evictProgram(&noop.Device{}, 1)
	if n := pc.size(); n != 1 {
		t.Errorf("size() after evict = %d, want 1", n)
	}
}

func TestPipelineKeyEqual(t *testing.T) {
	base := pipelineKey{
		program:      1,
		topology:     gputypes.PrimitiveTopologyTriangleStrip,
		blend:        *gfx.BlendOpaque,
		depthFormat:  gputypes.TextureFormatUndefined,
		depth:        *gfx.DepthStencilDefault,
		colorFormats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
	}
	renamed := base.clone()
	renamed.blend.Name = "other"
	if !base.equal(&renamed) {
		t.Error("state names affect key equality")
	}
	noDepth := base.clone()
	noDepth.depth = *gfx.DepthStencilNone
	if !base.equal(&noDepth) {
		t.Error("depth state compared without an attachment")
	}
	formats := base.clone()
	formats.colorFormats[0] = gputypes.TextureFormatBGRA8Unorm
	if base.equal(&formats) {
		t.Error("different color formats compare equal")
	}
	if base.colorFormats[0] != gputypes.TextureFormatRGBA8Unorm {
		t.Error("clone shares the color format slice")
	}
}

func TestSamplersShared(t *testing.T) {
	c, rec := newContext(t)
	p := newProgram(t, c)
	c.SetVertexBuffers(gfx.VertexBufferBinding{Buffer: newQuad(t, c)})
	c.SetRenderTargets(gfx.RenderTargetBinding{Target: newTarget(t, c, RenderTargetDescriptor{Width: 4, Height: 4})})

	renamed := *gfx.SamplerLinearClamp
	renamed.Name = "video"
	c.SetSamplerState(0, gfx.SamplerLinearClamp)
	c.SetSamplerState(1, &renamed)
	draw(t, c, p)
	draw(t, c, p)
	if rec.samplers != 1 {
		t.Errorf("%d samplers created, want 1", rec.samplers)
	}
}

func TestPassRestoresParams(t *testing.T) {
	c, _ := newContext(t)
	desc := shader.NV12ToRGBA()
	desc.Params = map[string]float32{"gain": 1}
	desc.PassParams = map[string]float32{"gain": 2, "bias": 0.5}
	p, err := c.CreateProgram(desc)
	if err != nil {
		t.Fatal(err)
	}

	changes := &gfx.StateChanges{}
	if err := c.Device().BeginPassRestore(p, changes); err != nil {
		t.Fatal(err)
	}
	if c.Program() != p {
		t.Error("program not active during pass")
	}
	if v, _ := p.Param("gain"); v != 2 {
		t.Errorf("gain during pass = %v, want 2", v)
	}
	if err := c.Device().BeginPassRestore(p, changes); !errors.Is(err, gfx.ErrPassActive) {
		t.Errorf("nested begin error = %v, want ErrPassActive", err)
	}
	if err := c.Device().EndPassRestore(nil); !errors.Is(err, ErrPassMismatch) {
		t.Errorf("mismatched end error = %v, want ErrPassMismatch", err)
	}
	if err := c.Device().EndPassRestore(p); err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Param("gain"); v != 1 {
		t.Errorf("gain after pass = %v, want 1", v)
	}
	if _, ok := p.Param("bias"); ok {
		t.Error("pass-only param survived the pass")
	}
	if c.Program() != nil {
		t.Error("program still active after pass")
	}
	if err := c.Device().EndPassRestore(p); !errors.Is(err, gfx.ErrPassNotActive) {
		t.Errorf("second end error = %v, want ErrPassNotActive", err)
	}
}

func TestApplyProgram(t *testing.T) {
	c, _ := newContext(t)
	desc := shader.NV12ToRGBA()
	desc.Params = map[string]float32{"gain": 1}
	host, err := c.CreateProgram(desc)
	if err != nil {
		t.Fatal(err)
	}
	pass := newProgram(t, c)

	if err := c.ApplyProgram(host); err != nil {
		t.Fatalf("ApplyProgram() error = %v", err)
	}
	host.SetParam("gain", 3)
	changes := &gfx.StateChanges{}
	if err := c.Device().BeginPassRestore(pass, changes); err != nil {
		t.Fatalf("BeginPassRestore() with an applied program error = %v", err)
	}
	if changes.Program != host {
		t.Error("pass did not record the applied program")
	}
	if err := c.Device().EndPassRestore(pass); err != nil {
		t.Fatal(err)
	}
	if c.Program() != host {
		t.Error("applied program not restored")
	}
	if v, _ := host.Param("gain"); v != 3 {
		t.Errorf("gain = %v, want 3", v)
	}

	other, _ := newContext(t)
	if err := c.ApplyProgram(newProgram(t, other)); !errors.Is(err, gfx.ErrForeignResource) {
		t.Errorf("foreign program error = %v, want ErrForeignResource", err)
	}
	if err := c.ApplyProgram(nil); err != nil || c.Program() != nil {
		t.Errorf("ApplyProgram(nil) = %v, program %v", err, c.Program())
	}
}

func TestUploadNV12(t *testing.T) {
	c, _ := newContext(t)
	luma, _ := c.CreateTexture(4, 4, gputypes.TextureFormatR8Unorm)
	chroma, _ := c.CreateTexture(2, 2, gputypes.TextureFormatRG8Unorm)
	wrong, _ := c.CreateTexture(4, 4, gputypes.TextureFormatRG8Unorm)
	dev := c.Device()

	if err := dev.UploadNV12(luma, chroma, make([]byte, 24)); err != nil {
		t.Fatalf("UploadNV12() error = %v", err)
	}
	if err := dev.UploadNV12(luma, chroma, make([]byte, 23)); !errors.Is(err, gfx.ErrInvalidSize) {
		t.Errorf("short frame error = %v, want ErrInvalidSize", err)
	}
	if err := dev.UploadNV12(luma, wrong, make([]byte, 48)); !errors.Is(err, gfx.ErrInvalidSize) {
		t.Errorf("full-size chroma error = %v, want ErrInvalidSize", err)
	}
	if err := dev.UploadNV12(chroma, luma, make([]byte, 24)); !errors.Is(err, gfx.ErrUnsupportedFormat) {
		t.Errorf("swapped planes error = %v, want ErrUnsupportedFormat", err)
	}
	chroma.Destroy()
	if err := dev.UploadNV12(luma, chroma, make([]byte, 24)); !errors.Is(err, gfx.ErrDestroyed) {
		t.Errorf("destroyed chroma error = %v, want ErrDestroyed", err)
	}
	if got := c.Stats().Uploads; got != 1 {
		t.Errorf("Stats().Uploads = %d, want 1", got)
	}
}

func TestSetDestroyedTexturePanics(t *testing.T) {
	c, _ := newContext(t)
	tex, _ := c.CreateTexture(2, 2, gputypes.TextureFormatRGBA8Unorm)
	tex.Destroy()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, gfx.ErrDestroyed) {
			t.Errorf("recover() = %v, want error wrapping ErrDestroyed", r)
		}
	}()
	c.SetTexture(0, tex)
}

func TestReadPixels(t *testing.T) {
	c, _ := newContext(t)
	rt := newTarget(t, c, RenderTargetDescriptor{Width: 3, Height: 2})
	img, err := rt.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	rt.Destroy()
	if _, err := rt.ReadPixels(); !errors.Is(err, gfx.ErrDestroyed) {
		t.Errorf("ReadPixels() after Destroy error = %v, want ErrDestroyed", err)
	}
}

func TestUnpackRows(t *testing.T) {
	const pitch = 256
	data := make([]byte, pitch*2)
	copy(data[0:], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	copy(data[pitch:], []byte{9, 10, 11, 12, 13, 14, 15, 16})

	img := unpackRows(data, 2, 2, pitch, gputypes.TextureFormatRGBA8Unorm)
	if got := img.Pix[img.Stride : img.Stride+4]; got[0] != 9 || got[3] != 12 {
		t.Errorf("row 1 = %v, want padding skipped", got)
	}

	img = unpackRows(data, 2, 2, pitch, gputypes.TextureFormatBGRA8Unorm)
	if got := img.Pix[0:4]; got[0] != 3 || got[1] != 2 || got[2] != 1 || got[3] != 4 {
		t.Errorf("BGRA texel = %v, want red and blue swapped", got)
	}
}

func TestPipelineKeyHash(t *testing.T) {
	base := func() pipelineKey {
		return pipelineKey{
			program:      1,
			topology:     gputypes.PrimitiveTopologyTriangleStrip,
			cullMode:     gputypes.CullModeNone,
			blend:        *gfx.BlendOpaque,
			depth:        *gfx.DepthStencilNone,
			colorFormats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
			layout:       quadLayout,
		}
	}
	ref := base()
	h := ref.hash()
	if again := base(); again.hash() != h {
		t.Fatal("hash is not deterministic")
	}

	renamed := base()
	renamed.blend.Name = "other"
	if renamed.hash() != h {
		t.Error("state names changed the hash")
	}
	noAttachment := base()
	noAttachment.depth = *gfx.DepthStencilDefault
	if noAttachment.hash() != h {
		t.Error("depth state without attachment changed the hash")
	}

	tests := []struct {
		name   string
		mutate func(*pipelineKey)
	}{
		{"program", func(k *pipelineKey) { k.program = 2 }},
		{"topology", func(k *pipelineKey) { k.topology = gputypes.PrimitiveTopologyTriangleList }},
		{"cull", func(k *pipelineKey) { k.cullMode = gputypes.CullModeBack }},
		{"blend", func(k *pipelineKey) { k.blend = *gfx.BlendAlpha }},
		{"depth format", func(k *pipelineKey) { k.depthFormat = gputypes.TextureFormatDepth32Float }},
		{"target format", func(k *pipelineKey) { k.colorFormats[0] = gputypes.TextureFormatBGRA8Unorm }},
		{"target count", func(k *pipelineKey) {
			k.colorFormats = append(k.colorFormats, gputypes.TextureFormatRGBA8Unorm)
		}},
		{"stride", func(k *pipelineKey) { k.layout = gfx.VertexLayout{Stride: 20, Attributes: quadLayout.Attributes} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := base()
			tt.mutate(&k)
			if k.hash() == h {
				t.Errorf("changing %s did not change the hash", tt.name)
			}
		})
	}
}

func TestBlendStateTranslation(t *testing.T) {
	if blendState(gfx.BlendOpaque) != nil {
		t.Error("disabled blend must translate to nil")
	}
	b := blendState(gfx.BlendAlpha)
	if b == nil {
		t.Fatal("blendState(alpha) = nil")
	}
	if b.Color.SrcFactor != gputypes.BlendFactorSrcAlpha || b.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("color component = %+v", b.Color)
	}
	if b.Alpha.SrcFactor != gputypes.BlendFactorOne {
		t.Errorf("alpha component = %+v", b.Alpha)
	}
}

func TestDepthStencilStateTranslation(t *testing.T) {
	if depthStencilState(gfx.DepthStencilDefault, gputypes.TextureFormatUndefined) != nil {
		t.Error("no attachment must translate to nil")
	}
	off := depthStencilState(gfx.DepthStencilNone, gputypes.TextureFormatDepth32Float)
	if off.DepthWriteEnabled || off.DepthCompare != gputypes.CompareFunctionAlways {
		t.Errorf("disabled depth = %+v", off)
	}
	read := depthStencilState(gfx.DepthStencilRead, gputypes.TextureFormatDepth32Float)
	if read.DepthWriteEnabled || read.DepthCompare != gputypes.CompareFunctionLessEqual {
		t.Errorf("read-only depth = %+v", read)
	}
}

func TestVertexBufferLayout(t *testing.T) {
	l := vertexBufferLayout(quadLayout)
	if l.ArrayStride != 16 || l.StepMode != gputypes.VertexStepModeVertex || len(l.Attributes) != 2 {
		t.Fatalf("layout = %+v", l)
	}
	if a := l.Attributes[1]; a.ShaderLocation != 1 || a.Offset != 8 || a.Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("texcoord attribute = %+v", a)
	}
}

func TestBindGroupLayoutEntries(t *testing.T) {
	entries := bindGroupLayoutEntries(2)
	if len(entries) != 4 {
		t.Fatalf("%d entries, want 4", len(entries))
	}
	for i, e := range entries {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d binding = %d", i, e.Binding)
		}
		if i%2 == 0 && e.Texture == nil {
			t.Errorf("binding %d is not a texture", i)
		}
		if i%2 == 1 && e.Sampler == nil {
			t.Errorf("binding %d is not a sampler", i)
		}
	}
}

func TestSamplerDescriptor(t *testing.T) {
	d := samplerDescriptor(gfx.SamplerPointWrap)
	if d.AddressModeU != gputypes.AddressModeRepeat || d.MagFilter != gputypes.FilterModeNearest {
		t.Errorf("descriptor = %+v", d)
	}
}

func TestContextDestroy(t *testing.T) {
	c, _ := newContext(t)
	c.Destroy()
	c.Destroy()
	if _, err := c.CreateTexture(2, 2, gputypes.TextureFormatR8Unorm); !errors.Is(err, ErrContextDestroyed) {
		t.Errorf("CreateTexture() after Destroy error = %v, want ErrContextDestroyed", err)
	}
}
