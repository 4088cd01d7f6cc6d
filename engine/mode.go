package engine

import (
	"github.com/Carmen-Shannon/lumen-go/engine/pass"
)

// RenderingMode selects which direct lighting strategy the frame runs.
type RenderingMode int

const (
	// DirectResamplingOnly shades direct lighting from the resampled estimate
	// alone.
	DirectResamplingOnly RenderingMode = iota

	// DirectResamplingWithBrdfMIS supplements the resampled estimate with BRDF
	// rays weighted by multiple importance sampling.
	DirectResamplingWithBrdfMIS

	// DirectResamplingWithBrdfIndirect adds a single-bounce indirect estimate
	// on top of the MIS combination; the BRDF rays become the sole denoiser
	// front end.
	DirectResamplingWithBrdfIndirect

	// BrdfDirectOnly shades direct lighting from BRDF rays alone, with no
	// resampling.
	BrdfDirectOnly
)

// String returns the mode's display name.
//
// Returns:
//   - string: the name shown in logs and settings
func (m RenderingMode) String() string {
	switch m {
	case DirectResamplingOnly:
		return "Direct Resampling"
	case DirectResamplingWithBrdfMIS:
		return "Direct Resampling + BRDF MIS"
	case DirectResamplingWithBrdfIndirect:
		return "Direct Resampling + BRDF Indirect"
	case BrdfDirectOnly:
		return "BRDF Direct Only"
	default:
		return "Unknown"
	}
}

// passPlan is the mode selector's output: which lighting pass families run
// this frame and with what flags. It performs no GPU work itself.
type passPlan struct {
	// runResampling runs the resampled direct lighting pass.
	runResampling bool

	// runBrdfRays runs the BRDF ray pass.
	runBrdfRays bool

	// resamplingFlags carries pass.ResampleFlagPackDenoiser when the
	// resampling family packs denoiser inputs.
	resamplingFlags uint32

	// brdfFlags carries the pass.BrdfFlag* bits for the BRDF ray pass.
	brdfFlags uint32
}

// planFor maps a rendering mode to its pass plan. The BRDF family always packs
// denoiser inputs when it runs; the resampling family packs except in the
// indirect-combined mode, where BRDF rays are the sole denoiser front end.
//
// Parameters:
//   - mode: the active rendering mode
//
// Returns:
//   - passPlan: the families to run and their flags
func planFor(mode RenderingMode) passPlan {
	switch mode {
	case DirectResamplingWithBrdfMIS:
		return passPlan{
			runResampling:   true,
			runBrdfRays:     true,
			resamplingFlags: pass.ResampleFlagPackDenoiser,
			brdfFlags:       pass.BrdfFlagAdditive | pass.BrdfFlagSpecularMIS,
		}
	case DirectResamplingWithBrdfIndirect:
		return passPlan{
			runResampling: true,
			runBrdfRays:   true,
			brdfFlags:     pass.BrdfFlagAdditive | pass.BrdfFlagSpecularMIS | pass.BrdfFlagIndirect,
		}
	case BrdfDirectOnly:
		return passPlan{
			runBrdfRays: true,
		}
	default:
		return passPlan{
			runResampling:   true,
			resamplingFlags: pass.ResampleFlagPackDenoiser,
		}
	}
}
