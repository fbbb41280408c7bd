// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import "github.com/gogpu/gputypes"

// VertexCount returns the number of vertices consumed by primitiveCount
// primitives of the given topology, or -1 for unsupported topologies.
func VertexCount(topology gputypes.PrimitiveTopology, primitiveCount int) int {
	if primitiveCount <= 0 {
		return 0
	}
	switch topology {
	case gputypes.PrimitiveTopologyTriangleList:
		return primitiveCount * 3
	case gputypes.PrimitiveTopologyTriangleStrip:
		return primitiveCount + 2
	default:
		return -1
	}
}

// Triangles expands vertex indices of a draw into triangles with a
// consistent winding. Strip triangles at odd positions swap their first
// two vertices, so every triangle keeps the winding of the first one.
func Triangles(topology gputypes.PrimitiveTopology, startVertex, primitiveCount int) [][3]int {
	tris := make([][3]int, 0, max(primitiveCount, 0))
	for i := 0; i < primitiveCount; i++ {
		switch topology {
		case gputypes.PrimitiveTopologyTriangleList:
			b := startVertex + i*3
			tris = append(tris, [3]int{b, b + 1, b + 2})
		case gputypes.PrimitiveTopologyTriangleStrip:
			b := startVertex + i
			if i%2 == 0 {
				tris = append(tris, [3]int{b, b + 1, b + 2})
			} else {
				tris = append(tris, [3]int{b + 1, b, b + 2})
			}
		}
	}
	return tris
}
