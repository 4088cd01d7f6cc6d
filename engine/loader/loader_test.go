package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"
)

// triangleGLTF builds a minimal glTF 2.0 document with a single emissive
// triangle in the XY plane and an embedded data-URI buffer.
func triangleGLTF() string {
	var buf bytes.Buffer
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for _, p := range positions {
		binary.Write(&buf, binary.LittleEndian, p)
	}
	for _, idx := range []uint16{0, 1, 2} {
		binary.Write(&buf, binary.LittleEndian, idx)
	}

	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	return fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"name": "triangle_scene"}],
		"meshes": [{
			"name": "triangle",
			"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]
		}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": %q, "byteLength": 42}],
		"materials": [{
			"name": "glow",
			"pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0.25, 1], "metallicFactor": 0, "roughnessFactor": 0.4},
			"emissiveFactor": [1, 0, 0],
			"extensions": {"KHR_materials_emissive_strength": {"emissiveStrength": 5}}
		}]
	}`, uri)
}

func TestLoadReaderTriangle(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	m, err := l.LoadReader("triangle", strings.NewReader(triangleGLTF()), false)
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	if m.Name() != "triangle_scene" {
		t.Errorf("model name = %q, want scene name", m.Name())
	}
	if got := m.TriangleCount(); got != 1 {
		t.Fatalf("triangle count = %d, want 1", got)
	}

	mesh := m.Meshes()[0]
	if len(mesh.Vertices) != 3 || len(mesh.Indices) != 3 {
		t.Fatalf("got %d vertices / %d indices, want 3 / 3", len(mesh.Vertices), len(mesh.Indices))
	}
	if mesh.BoundingMin != [3]float32{0, 0, 0} || mesh.BoundingMax != [3]float32{1, 1, 0} {
		t.Errorf("bounds = %v..%v", mesh.BoundingMin, mesh.BoundingMax)
	}

	// No NORMAL attribute in the document: the extractor must generate +Z
	// normals for this CCW triangle.
	for i, v := range mesh.Vertices {
		if math.Abs(float64(v.Normal[2]-1)) > 1e-5 {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}
}

func TestLoadReaderResolvesEmissiveMaterial(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	m, err := l.LoadReader("triangle", strings.NewReader(triangleGLTF()), false)
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	mat := m.Material(0)
	if mat.Name() != "glow" {
		t.Errorf("material name = %q, want glow", mat.Name())
	}
	if got := mat.EmissiveRadiance(); got != [3]float32{5, 0, 0} {
		t.Errorf("emissive radiance = %v, want factor scaled by strength", got)
	}
	if !mat.Emissive() {
		t.Error("material with emissive radiance must report Emissive")
	}
	if got := m.EmissiveTriangleCount(); got != 1 {
		t.Errorf("emissive triangle count = %d, want 1", got)
	}
	if mat.Transmissive() {
		t.Error("material without transmission extension must not be transmissive")
	}
}

func TestLoadReaderCachesByName(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	first, err := l.LoadReader("cached", strings.NewReader(triangleGLTF()), false)
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	second, err := l.LoadReader("cached", strings.NewReader("not valid gltf"), false)
	if err != nil {
		t.Fatalf("cached LoadReader must not re-parse: %v", err)
	}
	if first != second {
		t.Error("expected the cached model instance")
	}
	if l.Get("cached") != first {
		t.Error("Get must return the cached model")
	}
	if l.Get("missing") != nil {
		t.Error("Get for an unknown name must return nil")
	}
}

// triangleGLB wraps the same triangle in a GLB container: JSON chunk with a
// URI-less buffer, then the geometry in the BIN chunk.
func triangleGLB() []byte {
	var bin bytes.Buffer
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for _, p := range positions {
		binary.Write(&bin, binary.LittleEndian, p)
	}
	for _, idx := range []uint16{0, 1, 2} {
		binary.Write(&bin, binary.LittleEndian, idx)
	}
	// BIN chunks pad to 4-byte alignment.
	for bin.Len()%4 != 0 {
		bin.WriteByte(0)
	}

	jsonChunk := []byte(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"name": "glb_scene"}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"byteLength": 42}]
	}`)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}

	var glb bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + bin.Len()
	binary.Write(&glb, binary.LittleEndian, [3]uint32{0x46546C67, 2, uint32(total)})
	binary.Write(&glb, binary.LittleEndian, [2]uint32{uint32(len(jsonChunk)), 0x4E4F534A})
	glb.Write(jsonChunk)
	binary.Write(&glb, binary.LittleEndian, [2]uint32{uint32(bin.Len()), 0x004E4942})
	glb.Write(bin.Bytes())
	return glb.Bytes()
}

func TestLoadReaderGLBContainer(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	m, err := l.LoadReader("glb", bytes.NewReader(triangleGLB()), true)
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if m.Name() != "glb_scene" {
		t.Errorf("model name = %q, want glb_scene", m.Name())
	}
	if got := m.TriangleCount(); got != 1 {
		t.Fatalf("triangle count = %d, want 1", got)
	}
	mesh := m.Meshes()[0]
	if mesh.Vertices[1].Position != [3]float32{1, 0, 0} {
		t.Errorf("vertex 1 position = %v, want from BIN chunk", mesh.Vertices[1].Position)
	}
	if mesh.Indices[2] != 2 {
		t.Errorf("index 2 = %d, want widened uint16 value", mesh.Indices[2])
	}
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	if _, err := l.Load("model.obj"); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}
