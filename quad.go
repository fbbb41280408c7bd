// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// quadVertices is the full-screen triangle strip: clip-space position
// followed by texture coordinate. The top of the frame (v = 0) maps to the
// top of the target.
var quadVertices = [4][4]float32{
	{-1, -1, 0, 1},
	{1, -1, 1, 1},
	{-1, 1, 0, 0},
	{1, 1, 1, 0},
}

// quadLayout is position at location 0 and texture coordinate at location 1.
var quadLayout = gfx.VertexLayout{
	Stride: 16,
	Attributes: []gfx.VertexAttribute{
		{Location: 0, Format: gputypes.VertexFormatFloat32x2, Offset: 0},
		{Location: 1, Format: gputypes.VertexFormatFloat32x2, Offset: 8},
	},
}

const (
	quadTopology   = gputypes.PrimitiveTopologyTriangleStrip
	quadPrimitives = 2
)

func newQuad(ctx gfx.Context) (gfx.VertexBuffer, error) {
	data := make([]byte, 0, len(quadVertices)*quadLayout.Stride)
	for _, v := range quadVertices {
		for _, f := range v {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(f))
		}
	}
	vb, err := ctx.CreateVertexBuffer(quadLayout, data)
	if err != nil {
		return nil, fmt.Errorf("create quad: %w", err)
	}
	return vb, nil
}
