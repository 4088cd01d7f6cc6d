package renderer

import (
	"time"

	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Section is a closed profiling section recorded on a command stream. Durations
// measure command encoding time on the CPU; they track relative pass cost well
// enough for the profiler's per-pass report without GPU timestamp queries.
type Section struct {
	// Label is the marker label the section was opened with.
	Label string
	// Depth is the marker nesting depth, 0 for top-level sections.
	Depth int
	// Duration is the time spent encoding between BeginSection and EndSection.
	Duration time.Duration
}

// CommandStream records GPU work for one frame segment. Streams are opened via
// the Renderer, filled by the render passes, and submitted in frame order.
type CommandStream interface {
	// Label returns the stream's debug label.
	//
	// Returns:
	//   - string: the label the stream was opened with
	Label() string

	// BeginSection opens a named profiling section. Sections nest.
	//
	// Parameters:
	//   - label: the section label, reported to the profiler after submission
	BeginSection(label string)

	// EndSection closes the innermost open profiling section.
	EndSection()

	// Sections returns the closed profiling sections recorded so far, in close order.
	//
	// Returns:
	//   - []Section: the closed sections
	Sections() []Section

	// Dispatch encodes a compute pass running the given pipeline.
	//
	// Parameters:
	//   - p: the compute Pipeline to run
	//   - bindGroups: the bind groups to set, in group index order (nil entries skipped)
	//   - x, y, z: the workgroup counts in each dimension
	Dispatch(p pipeline.Pipeline, bindGroups []*wgpu.BindGroup, x, y, z uint32)

	// DrawIndexed encodes a render pass drawing indexed geometry into the given
	// color targets and depth target. Used by the raster G-buffer fill.
	//
	// Parameters:
	//   - p: the render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - bindGroups: the bind groups to set, in group index order
	//   - colorTargets: the color attachment views, in attachment order
	//   - depthTarget: the depth attachment view, or nil for no depth
	//   - clear: whether attachments are cleared (true) or loaded (false)
	DrawIndexed(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, bindGroups []*wgpu.BindGroup, colorTargets []*wgpu.TextureView, depthTarget *wgpu.TextureView, clear bool)

	// DrawFullscreen encodes a render pass drawing a single fullscreen triangle
	// (3 vertices, no vertex buffer) into one color target. Used by the blit,
	// composite, and environment map passes.
	//
	// Parameters:
	//   - p: the render Pipeline to use
	//   - bindGroups: the bind groups to set, in group index order
	//   - target: the color attachment view
	//   - clear: whether the attachment is cleared before the draw
	DrawFullscreen(p pipeline.Pipeline, bindGroups []*wgpu.BindGroup, target *wgpu.TextureView, clear bool)

	// ClearTexture encodes a render pass that clears a texture view to a color
	// without drawing.
	//
	// Parameters:
	//   - target: the view to clear
	//   - value: the clear color
	ClearTexture(target *wgpu.TextureView, value wgpu.Color)

	// CopyTexture encodes a texture-to-texture copy of mip level 0. Source and
	// destination must share format and dimensions.
	//
	// Parameters:
	//   - src: the source texture
	//   - dst: the destination texture
	CopyTexture(src, dst Texture)

	// CopyTexturePixel encodes a copy of a single texel into a readback buffer.
	// The destination must be at least 256 bytes (the minimum row alignment)
	// and created with CopyDst and MapRead usage.
	//
	// Parameters:
	//   - src: the source texture
	//   - x, y: the texel coordinates
	//   - dst: the readback buffer
	CopyTexturePixel(src Texture, x, y uint32, dst *wgpu.Buffer)

	// Discard releases a stream that will not be submitted, dropping the
	// recorded commands. A submitted or already-discarded stream is a no-op.
	Discard()
}

// wgpuCommandStream is the WGPU implementation of CommandStream.
type wgpuCommandStream struct {
	label   string
	encoder *wgpu.CommandEncoder

	// markers is the stack of open sections; closed sections append to sections.
	markers  []openMarker
	sections []Section
}

type openMarker struct {
	label string
	start time.Time
}

var _ CommandStream = &wgpuCommandStream{}

func newWGPUCommandStream(label string, encoder *wgpu.CommandEncoder) *wgpuCommandStream {
	return &wgpuCommandStream{
		label:   label,
		encoder: encoder,
	}
}

func (s *wgpuCommandStream) Label() string {
	return s.label
}

func (s *wgpuCommandStream) BeginSection(label string) {
	s.markers = append(s.markers, openMarker{label: label, start: time.Now()})
}

func (s *wgpuCommandStream) EndSection() {
	if len(s.markers) == 0 {
		return
	}
	m := s.markers[len(s.markers)-1]
	s.markers = s.markers[:len(s.markers)-1]
	s.sections = append(s.sections, Section{
		Label:    m.label,
		Depth:    len(s.markers),
		Duration: time.Since(m.start),
	})
}

func (s *wgpuCommandStream) Sections() []Section {
	return s.sections
}

func (s *wgpuCommandStream) Discard() {
	if s.encoder != nil {
		s.encoder.Release()
		s.encoder = nil
	}
}

func (s *wgpuCommandStream) Dispatch(p pipeline.Pipeline, bindGroups []*wgpu.BindGroup, x, y, z uint32) {
	computePipeline, ok := p.Pipeline().(*wgpu.ComputePipeline)
	if !ok || computePipeline == nil {
		return
	}

	pass := s.encoder.BeginComputePass(nil)
	pass.SetPipeline(computePipeline)
	for i, bg := range bindGroups {
		if bg != nil {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
	}
	pass.DispatchWorkgroups(x, y, z)
	pass.End()
}

func (s *wgpuCommandStream) DrawIndexed(
	p pipeline.Pipeline,
	meshProvider bind_group_provider.BindGroupProvider,
	bindGroups []*wgpu.BindGroup,
	colorTargets []*wgpu.TextureView,
	depthTarget *wgpu.TextureView,
	clear bool,
) {
	renderPipeline, ok := p.Pipeline().(*wgpu.RenderPipeline)
	if !ok || renderPipeline == nil {
		return
	}

	loadOp := wgpu.LoadOpLoad
	if clear {
		loadOp = wgpu.LoadOpClear
	}

	attachments := make([]wgpu.RenderPassColorAttachment, len(colorTargets))
	for i, view := range colorTargets {
		attachments[i] = wgpu.RenderPassColorAttachment{
			View:    view,
			LoadOp:  loadOp,
			StoreOp: wgpu.StoreOpStore,
		}
	}

	desc := &wgpu.RenderPassDescriptor{
		Label:            s.label,
		ColorAttachments: attachments,
	}
	if depthTarget != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depthTarget,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 0.0, // reverse-Z clears to the far plane at depth 0
		}
	}

	pass := s.encoder.BeginRenderPass(desc)
	pass.SetPipeline(renderPipeline)
	for i, bg := range bindGroups {
		if bg != nil {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
	}
	pass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(meshProvider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(meshProvider.IndexCount()), 1, 0, 0, 0)
	pass.End()
}

func (s *wgpuCommandStream) DrawFullscreen(p pipeline.Pipeline, bindGroups []*wgpu.BindGroup, target *wgpu.TextureView, clear bool) {
	renderPipeline, ok := p.Pipeline().(*wgpu.RenderPipeline)
	if !ok || renderPipeline == nil {
		return
	}

	loadOp := wgpu.LoadOpLoad
	if clear {
		loadOp = wgpu.LoadOpClear
	}

	pass := s.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: s.label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    target,
				LoadOp:  loadOp,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	pass.SetPipeline(renderPipeline)
	for i, bg := range bindGroups {
		if bg != nil {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
	}
	pass.Draw(3, 1, 0, 0)
	pass.End()
}

func (s *wgpuCommandStream) ClearTexture(target *wgpu.TextureView, value wgpu.Color) {
	pass := s.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: s.label + " clear",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       target,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: value,
			},
		},
	})
	pass.End()
}

func (s *wgpuCommandStream) CopyTexture(src, dst Texture) {
	s.encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{
			Texture:  src.Raw(),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyTexture{
			Texture:  dst.Raw(),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.Extent3D{
			Width:              src.Width(),
			Height:             src.Height(),
			DepthOrArrayLayers: 1,
		},
	)
}

func (s *wgpuCommandStream) CopyTexturePixel(src Texture, x, y uint32, dst *wgpu.Buffer) {
	s.encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  src.Raw(),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: x, Y: y},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: dst,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  256,
				RowsPerImage: 1,
			},
		},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
}
