package light

// Stats summarizes the light content of a scene. The sampling resources are
// sized from these counts, so any change invalidates them; the triple is
// comparable with == for exactly that purpose.
type Stats struct {
	// EmissiveMeshes is the number of mesh instances carrying an emissive
	// material.
	EmissiveMeshes uint32

	// EmissiveTriangles is the total triangle count across all emissive mesh
	// instances. Each triangle occupies one slot in the light buffer.
	EmissiveTriangles uint32

	// PrimitiveLights is the number of enabled analytic lights (directional,
	// point, spot).
	PrimitiveLights uint32
}

// TotalLights returns the number of light buffer slots the scene requires.
//
// Returns:
//   - uint32: emissive triangle count plus primitive light count
func (s Stats) TotalLights() uint32 {
	return s.EmissiveTriangles + s.PrimitiveLights
}

// CountStats computes light statistics for a primitive light list and a set of
// emissive mesh triangle counts.
//
// Parameters:
//   - lights: the primitive lights; disabled lights are not counted
//   - emissiveTriangleCounts: per-emissive-mesh triangle counts
//
// Returns:
//   - Stats: the computed statistics
func CountStats(lights []Light, emissiveTriangleCounts []uint32) Stats {
	var s Stats
	for _, l := range lights {
		if l.Enabled() {
			s.PrimitiveLights++
		}
	}
	for _, n := range emissiveTriangleCounts {
		if n == 0 {
			continue
		}
		s.EmissiveMeshes++
		s.EmissiveTriangles += n
	}
	return s
}
