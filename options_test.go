// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import (
	"testing"

	"github.com/gogpu/nv12/gfx"
	"github.com/gogpu/nv12/shader"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.sampler != gfx.SamplerLinearClamp {
		t.Errorf("sampler = %v, want linear clamp", o.sampler.Name)
	}
	if o.label != "nv12" {
		t.Errorf("label = %q, want %q", o.label, "nv12")
	}
	if o.program.Label != shader.Label {
		t.Errorf("program = %q, want %q", o.program.Label, shader.Label)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		check func(options) bool
	}{
		{"sampler", WithSampler(gfx.SamplerPointClamp), func(o options) bool { return o.sampler == gfx.SamplerPointClamp }},
		{"nil sampler ignored", WithSampler(nil), func(o options) bool { return o.sampler == gfx.SamplerLinearClamp }},
		{"label", WithLabel("camera-0"), func(o options) bool { return o.label == "camera-0" }},
		{"program", WithProgram(gfx.ProgramDescriptor{Label: "custom"}), func(o options) bool { return o.program.Label == "custom" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			if !tt.check(o) {
				t.Errorf("%s option not applied: %+v", tt.name, o)
			}
		})
	}
}
