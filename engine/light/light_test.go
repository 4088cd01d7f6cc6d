package light

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestCountStats(t *testing.T) {
	lights := []Light{
		NewLight(LightTypeDirectional),
		NewLight(LightTypePoint, WithEnabled(false)),
		NewLight(LightTypeSpot, WithSpotCone(20, 30)),
	}
	stats := CountStats(lights, []uint32{12, 0, 300})

	if stats.PrimitiveLights != 2 {
		t.Errorf("expected 2 primitive lights, got %d", stats.PrimitiveLights)
	}
	if stats.EmissiveMeshes != 2 {
		t.Errorf("expected 2 emissive meshes, got %d", stats.EmissiveMeshes)
	}
	if stats.EmissiveTriangles != 312 {
		t.Errorf("expected 312 emissive triangles, got %d", stats.EmissiveTriangles)
	}
	if stats.TotalLights() != 314 {
		t.Errorf("expected 314 total light slots, got %d", stats.TotalLights())
	}
}

func TestStatsComparable(t *testing.T) {
	a := Stats{EmissiveMeshes: 1, EmissiveTriangles: 10, PrimitiveLights: 3}
	b := a
	if a != b {
		t.Error("identical stats must compare equal")
	}
	b.EmissiveTriangles++
	if a == b {
		t.Error("changed stats must compare unequal")
	}
}

func TestMarshalLightBufferSkipsDisabled(t *testing.T) {
	lights := []Light{
		NewLight(LightTypePoint, WithPosition(1, 2, 3)),
		NewLight(LightTypePoint, WithEnabled(false)),
		NewLight(LightTypeDirectional, WithDirection(0, -1, 0)),
	}
	buf := MarshalLightBuffer(lights, nil, 42, 1)

	headerSize := (&GPULightBufferHeader{}).Size()
	lightSize := (&GPULight{}).Size()
	if len(buf) != headerSize+2*lightSize {
		t.Fatalf("expected header plus 2 lights, got %d bytes", len(buf))
	}
	if got := binary.LittleEndian.Uint32(buf[0:4]); got != 2 {
		t.Errorf("primitive light count = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(buf[4:8]); got != 42 {
		t.Errorf("emissive triangle count = %d, want 42", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[8:12])); got != -1 {
		t.Errorf("environment slot = %d, want -1 with nil environment", got)
	}
}

func TestMarshalLightBufferMutesSunUnderFileBackedMap(t *testing.T) {
	lights := []Light{
		NewLight(LightTypeDirectional, WithDirection(0, -1, 0), WithIntensity(2)),
		NewLight(LightTypePoint, WithIntensity(5)),
	}
	buf := MarshalLightBuffer(lights, nil, 0, 0)

	headerSize := (&GPULightBufferHeader{}).Size()
	lightSize := (&GPULight{}).Size()

	sunIntensity := math.Float32frombits(binary.LittleEndian.Uint32(buf[headerSize+28 : headerSize+32]))
	if sunIntensity != 0 {
		t.Errorf("directional intensity = %v, want 0 with sun scale 0", sunIntensity)
	}
	pointIntensity := math.Float32frombits(binary.LittleEndian.Uint32(buf[headerSize+lightSize+28 : headerSize+lightSize+32]))
	if pointIntensity != 5 {
		t.Errorf("point intensity = %v, want 5 (unaffected by sun scale)", pointIntensity)
	}
}

func TestEnvironmentLightRadianceScale(t *testing.T) {
	env := NewEnvironmentLight()
	if env.TextureSlot() >= 0 {
		t.Error("new environment light should start disabled")
	}
	env.SetIntensityBias(2)
	if got := env.RadianceScale(); got != 4 {
		t.Errorf("exp2(2) scale = %v, want 4", got)
	}
	env.SetRotation(0.75)
	if got := env.Rotation(); got != 0.5 {
		t.Errorf("rotation should clamp to 0.5, got %v", got)
	}
}

func TestSpotConeStoredAsCosine(t *testing.T) {
	l := NewLight(LightTypeSpot, WithSpotCone(0, 90))
	if got := l.InnerCone(); got < 0.999 || got > 1.001 {
		t.Errorf("cos(0) = %v, want 1", got)
	}
	if got := l.OuterCone(); got < -0.001 || got > 0.001 {
		t.Errorf("cos(90°) = %v, want 0", got)
	}
}
