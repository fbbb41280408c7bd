// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nv12/gfx"
)

// pipelineKey is everything a render pipeline is specialized on.
type pipelineKey struct {
	program      uint64
	topology     gputypes.PrimitiveTopology
	cullMode     gputypes.CullMode
	blend        gfx.BlendState
	depth        gfx.DepthStencilState
	depthFormat  gputypes.TextureFormat
	colorFormats []gputypes.TextureFormat
	layout       gfx.VertexLayout
}

// hash computes an FNV-1a hash of the key. State names are ignored so
// equal states under different names share a pipeline.
func (k *pipelineKey) hash() uint64 {
	h := fnv.New64a()

	hashWriteUint64(h, k.program)
	hashWriteUint32(h, uint32(k.topology))
	hashWriteUint32(h, uint32(k.cullMode))

	hashWriteBool(h, k.blend.Enabled)
	if k.blend.Enabled {
		hashWriteBlendComponent(h, k.blend.Color)
		hashWriteBlendComponent(h, k.blend.Alpha)
	}

	// Depth state only matters with an attachment.
	hashWriteUint32(h, uint32(k.depthFormat))
	if k.depthFormat != gputypes.TextureFormatUndefined && k.depth.DepthEnabled {
		hashWriteBool(h, k.depth.DepthWriteEnabled)
		hashWriteUint32(h, uint32(k.depth.DepthCompare))
	}

	hashWriteUint32(h, uint32(len(k.colorFormats)))
	for _, f := range k.colorFormats {
		hashWriteUint32(h, uint32(f))
	}

	hashWriteUint32(h, uint32(k.layout.Stride))
	hashWriteUint32(h, uint32(len(k.layout.Attributes)))
	for _, a := range k.layout.Attributes {
		hashWriteUint32(h, a.Location)
		hashWriteUint32(h, uint32(a.Format))
		hashWriteUint32(h, uint32(a.Offset))
	}

	return h.Sum64()
}

// equal reports whether two keys describe the same pipeline, ignoring
// the same fields hash ignores.
func (k *pipelineKey) equal(o *pipelineKey) bool {
	if k.program != o.program || k.topology != o.topology || k.cullMode != o.cullMode {
		return false
	}
	if k.blend.Enabled != o.blend.Enabled {
		return false
	}
	if k.blend.Enabled && (k.blend.Color != o.blend.Color || k.blend.Alpha != o.blend.Alpha) {
		return false
	}
	if k.depthFormat != o.depthFormat {
		return false
	}
	if k.depthFormat != gputypes.TextureFormatUndefined {
		if k.depth.DepthEnabled != o.depth.DepthEnabled {
			return false
		}
		if k.depth.DepthEnabled &&
			(k.depth.DepthWriteEnabled != o.depth.DepthWriteEnabled || k.depth.DepthCompare != o.depth.DepthCompare) {
			return false
		}
	}
	return slices.Equal(k.colorFormats, o.colorFormats) &&
		k.layout.Stride == o.layout.Stride &&
		slices.Equal(k.layout.Attributes, o.layout.Attributes)
}

// clone returns a copy that shares no slices with k.
func (k *pipelineKey) clone() pipelineKey {
	c := *k
	c.colorFormats = slices.Clone(k.colorFormats)
	c.layout.Attributes = slices.Clone(k.layout.Attributes)
	return c
}

func hashWriteBlendComponent(h hash.Hash64, c gfx.BlendComponent) {
	hashWriteUint32(h, uint32(c.SrcFactor))
	hashWriteUint32(h, uint32(c.DstFactor))
	hashWriteUint32(h, uint32(c.Operation))
}

func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}

type pipelineEntry struct {
	key      pipelineKey
	pipeline hal.RenderPipeline
}

// pipelineCache holds render pipelines bucketed by pipelineKey hash. A hit
// requires the stored key to equal the requested one.
//
// Lookups take the read lock; creation re-checks under the write lock so
// concurrent misses on the same key build one pipeline.
type pipelineCache struct {
	mu        sync.RWMutex
	pipelines map[uint64][]pipelineEntry
	hits      atomic.Uint64
	misses    atomic.Uint64
}

func newPipelineCache() *pipelineCache {
	return &pipelineCache{pipelines: make(map[uint64][]pipelineEntry)}
}

// getOrCreate returns the cached pipeline for key, calling create on a
// miss.
func (pc *pipelineCache) getOrCreate(key *pipelineKey, create func() (hal.RenderPipeline, error)) (hal.RenderPipeline, error) {
	return pc.getOrCreateHashed(key.hash(), key, create)
}

func (pc *pipelineCache) getOrCreateHashed(h uint64, key *pipelineKey, create func() (hal.RenderPipeline, error)) (hal.RenderPipeline, error) {
	pc.mu.RLock()
	if p, ok := pc.find(h, key); ok {
		pc.mu.RUnlock()
		pc.hits.Add(1)
		return p, nil
	}
	pc.mu.RUnlock()

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if p, ok := pc.find(h, key); ok {
		pc.hits.Add(1)
		return p, nil
	}

	pipeline, err := create()
	if err != nil {
		return nil, err
	}
	pc.pipelines[h] = append(pc.pipelines[h], pipelineEntry{key: key.clone(), pipeline: pipeline})
	pc.misses.Add(1)
	return pipeline, nil
}

// find must be called with pc.mu held.
func (pc *pipelineCache) find(h uint64, key *pipelineKey) (hal.RenderPipeline, bool) {
	for i := range pc.pipelines[h] {
		if e := &pc.pipelines[h][i]; e.key.equal(key) {
			return e.pipeline, true
		}
	}
	return nil, false
}

// evictProgram destroys every pipeline built from program.
func (pc *pipelineCache) evictProgram(halDevice hal.Device, program uint64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for h, bucket := range pc.pipelines {
		kept := bucket[:0]
		for _, e := range bucket {
			if e.key.program == program {
				halDevice.DestroyRenderPipeline(e.pipeline)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(pc.pipelines, h)
		} else {
			pc.pipelines[h] = kept
		}
	}
}

func (pc *pipelineCache) destroyAll(halDevice hal.Device) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for h, bucket := range pc.pipelines {
		for _, e := range bucket {
			halDevice.DestroyRenderPipeline(e.pipeline)
		}
		delete(pc.pipelines, h)
	}
}

func (pc *pipelineCache) size() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	n := 0
	for _, bucket := range pc.pipelines {
		n += len(bucket)
	}
	return n
}

func (pc *pipelineCache) stats() (hits, misses uint64) {
	return pc.hits.Load(), pc.misses.Load()
}

// createPipeline builds the render pipeline described by key.
func (c *Context) createPipeline(p *Program, key *pipelineKey) (hal.RenderPipeline, error) {
	targets := make([]gputypes.ColorTargetState, len(key.colorFormats))
	for i, f := range key.colorFormats {
		targets[i] = gputypes.ColorTargetState{
			Format:    f,
			Blend:     blendState(&key.blend),
			WriteMask: gputypes.ColorWriteMaskAll,
		}
	}
	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: p.vertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{vertexBufferLayout(key.layout)},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  key.topology,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  key.cullMode,
		},
		DepthStencil: depthStencilState(&key.depth, key.depthFormat),
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: p.fragmentEntry,
			Targets:    targets,
		},
	})
	if err != nil {
		return nil, err
	}
	slogger().Debug("halgfx: render pipeline created",
		"program", p.label,
		"topology", key.topology,
		"targets", len(targets),
	)
	return pipeline, nil
}

// blendState translates s, returning nil when blending is disabled.
func blendState(s *gfx.BlendState) *gputypes.BlendState {
	if s == nil || !s.Enabled {
		return nil
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: s.Color.SrcFactor,
			DstFactor: s.Color.DstFactor,
			Operation: s.Color.Operation,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: s.Alpha.SrcFactor,
			DstFactor: s.Alpha.DstFactor,
			Operation: s.Alpha.Operation,
		},
	}
}

// depthStencilState translates s for an attachment of the given format.
// It returns nil when no depth attachment is bound. A disabled depth test
// passes every fragment and writes nothing.
func depthStencilState(s *gfx.DepthStencilState, format gputypes.TextureFormat) *hal.DepthStencilState {
	if format == gputypes.TextureFormatUndefined {
		return nil
	}
	ds := &hal.DepthStencilState{
		Format:       format,
		DepthCompare: gputypes.CompareFunctionAlways,
		StencilFront: hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
		StencilBack:  hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
	}
	if s != nil && s.DepthEnabled {
		ds.DepthWriteEnabled = s.DepthWriteEnabled
		ds.DepthCompare = s.DepthCompare
	}
	return ds
}

func vertexBufferLayout(l gfx.VertexLayout) gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.Stride),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// vertexFormatSize returns the byte size of the float formats, or 0.
func vertexFormatSize(f gputypes.VertexFormat) int {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 4
	case gputypes.VertexFormatFloat32x2:
		return 8
	case gputypes.VertexFormatFloat32x3:
		return 12
	case gputypes.VertexFormatFloat32x4:
		return 16
	}
	return 0
}

func samplerDescriptor(s *gfx.SamplerState) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        "halgfx " + s.Name,
		AddressModeU: s.AddressModeU,
		AddressModeV: s.AddressModeV,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    s.MagFilter,
		MinFilter:    s.MinFilter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMinClamp:  0,
		LodMaxClamp:  32,
		Anisotropy:   1,
	}
}

// bindGroupLayoutEntries lays out slots texture/sampler pairs: texture
// slot i at binding 2i, its sampler at 2i+1.
func bindGroupLayoutEntries(slots int) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, 2*slots)
	for i := 0; i < slots; i++ {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(2 * i),
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(2*i + 1),
				Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{
					Type: gputypes.SamplerBindingTypeFiltering,
				},
			},
		)
	}
	return entries
}
