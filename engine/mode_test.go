package engine

import (
	"testing"

	"github.com/Carmen-Shannon/lumen-go/engine/pass"
)

func TestPlanForModeTable(t *testing.T) {
	tests := []struct {
		mode RenderingMode
		want passPlan
	}{
		{
			mode: DirectResamplingOnly,
			want: passPlan{
				runResampling:   true,
				resamplingFlags: pass.ResampleFlagPackDenoiser,
			},
		},
		{
			mode: DirectResamplingWithBrdfMIS,
			want: passPlan{
				runResampling:   true,
				runBrdfRays:     true,
				resamplingFlags: pass.ResampleFlagPackDenoiser,
				brdfFlags:       pass.BrdfFlagAdditive | pass.BrdfFlagSpecularMIS,
			},
		},
		{
			// With indirect lighting folded in, the BRDF pass becomes the sole
			// denoiser front end: the resampling pass must not pack.
			mode: DirectResamplingWithBrdfIndirect,
			want: passPlan{
				runResampling: true,
				runBrdfRays:   true,
				brdfFlags:     pass.BrdfFlagAdditive | pass.BrdfFlagSpecularMIS | pass.BrdfFlagIndirect,
			},
		},
		{
			mode: BrdfDirectOnly,
			want: passPlan{
				runBrdfRays: true,
			},
		},
	}

	for _, tc := range tests {
		if got := planFor(tc.mode); got != tc.want {
			t.Errorf("%s: plan = %+v, want %+v", tc.mode, got, tc.want)
		}
	}
}

func TestRenderingModeStrings(t *testing.T) {
	for _, m := range []RenderingMode{
		DirectResamplingOnly,
		DirectResamplingWithBrdfMIS,
		DirectResamplingWithBrdfIndirect,
		BrdfDirectOnly,
	} {
		if m.String() == "" || m.String() == "Unknown" {
			t.Errorf("mode %d has no display name", m)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.Mode != DirectResamplingWithBrdfMIS {
		t.Errorf("default mode = %v", s.Mode)
	}
	if !s.EnableTaa || s.EnableAccumulation {
		t.Error("defaults should enable TAA and leave accumulation off")
	}
	if s.Gamma != 2.2 {
		t.Errorf("default gamma = %v", s.Gamma)
	}
	if !s.LocalLightImportanceSampling || s.ImportanceCellSize <= 0 {
		t.Error("local light importance sampling defaults are wrong")
	}
	if s.FpsLimit <= 0 {
		t.Error("default FPS limit must be positive even while the limiter is off")
	}
}
