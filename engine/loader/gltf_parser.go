package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
)

// gltfFile is a parsed glTF document with all buffer data resolved into
// memory. baseDir anchors relative buffer URIs when the document came from a
// file on disk.
type gltfFile struct {
	doc     gltfDocument
	baseDir string
}

// parseGLTFFile reads and parses a .gltf or .glb file. The container format
// is detected from the extension, falling back to the GLB magic for files
// with other extensions.
func parseGLTFFile(path string) (*gltfFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data) == gltfGLBMagic)

	return parseGLTF(data, filepath.Dir(path), isGLB)
}

// parseGLTF parses glTF JSON or GLB binary data and resolves every buffer.
func parseGLTF(data []byte, baseDir string, isGLB bool) (*gltfFile, error) {
	var jsonChunk, binChunk []byte
	if isGLB {
		var err error
		jsonChunk, binChunk, err = splitGLB(data)
		if err != nil {
			return nil, err
		}
	} else {
		jsonChunk = data
	}

	f := &gltfFile{baseDir: baseDir}
	if err := json.Unmarshal(jsonChunk, &f.doc); err != nil {
		return nil, fmt.Errorf("parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(f.doc.Asset.Version, "2.") {
		return nil, errInvalidGLTFVersion
	}
	if err := f.resolveBuffers(binChunk); err != nil {
		return nil, err
	}
	return f, nil
}

// splitGLB walks the GLB container and returns the JSON chunk and the
// optional binary chunk. Unknown chunk types are skipped as the format
// requires.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < 12 {
		return nil, nil, errors.New("GLB file too small")
	}
	if binary.LittleEndian.Uint32(data[0:]) != gltfGLBMagic {
		return nil, nil, errInvalidGLBMagic
	}
	if binary.LittleEndian.Uint32(data[4:]) != gltfGLBVersion {
		return nil, nil, errInvalidGLBVersion
	}

	for off := 12; off+8 <= len(data); {
		length := int(binary.LittleEndian.Uint32(data[off:]))
		chunkType := binary.LittleEndian.Uint32(data[off+4:])
		off += 8
		if off+length > len(data) {
			return nil, nil, fmt.Errorf("GLB chunk extends past end of file")
		}
		switch chunkType {
		case gltfGLBChunkJSON:
			jsonChunk = data[off : off+length]
		case gltfGLBChunkBIN:
			binChunk = data[off : off+length]
		}
		off += length
	}

	if jsonChunk == nil {
		return nil, nil, errMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

// resolveBuffers fills every buffer's Data from its URI, or from the GLB
// binary chunk for the first URI-less buffer.
func (f *gltfFile) resolveBuffers(binChunk []byte) error {
	for i := range f.doc.Buffers {
		buf := &f.doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && binChunk != nil:
			buf.Data = binChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			data, err := os.ReadFile(filepath.Join(f.baseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: load %q: %w", i, buf.URI, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// decodeDataURI decodes a base64 data URI of the form
// data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, encoded, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// accessorBytes returns an accessor's elements as tightly packed bytes,
// de-interleaving strided buffer views.
func (f *gltfFile) accessorBytes(index int) ([]byte, error) {
	if index < 0 || index >= len(f.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	acc := &f.doc.Accessors[index]
	if acc.Sparse != nil {
		return nil, errors.New("sparse accessors not supported")
	}
	if acc.BufferView == nil {
		return nil, errors.New("accessor has no bufferView")
	}

	bv := &f.doc.BufferViews[*acc.BufferView]
	buf := &f.doc.Buffers[bv.Buffer]

	elementSize := componentByteSize(acc.ComponentType) * accessorComponents(acc.Type)
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	base := bv.ByteOffset + acc.ByteOffset

	if acc.Count > 0 && base+(acc.Count-1)*stride+elementSize > len(buf.Data) {
		return nil, fmt.Errorf("accessor %d reads past end of buffer", index)
	}

	packed := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		src := base + i*stride
		copy(packed[i*elementSize:], buf.Data[src:src+elementSize])
	}
	return packed, nil
}

// readVec2 reads a VEC2 FLOAT accessor.
func (f *gltfFile) readVec2(index int) ([][2]float32, error) {
	acc := &f.doc.Accessors[index]
	if acc.Type != gltfAccessorTypeVec2 || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor is not VEC2 FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}
	data, err := f.accessorBytes(index)
	if err != nil {
		return nil, err
	}

	out := make([][2]float32, acc.Count)
	for i := range out {
		out[i] = [2]float32{
			math.Float32frombits(binary.LittleEndian.Uint32(data[i*8:])),
			math.Float32frombits(binary.LittleEndian.Uint32(data[i*8+4:])),
		}
	}
	return out, nil
}

// readVec3 reads a VEC3 FLOAT accessor.
func (f *gltfFile) readVec3(index int) ([][3]float32, error) {
	acc := &f.doc.Accessors[index]
	if acc.Type != gltfAccessorTypeVec3 || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor is not VEC3 FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}
	data, err := f.accessorBytes(index)
	if err != nil {
		return nil, err
	}

	out := make([][3]float32, acc.Count)
	for i := range out {
		out[i] = [3]float32{
			math.Float32frombits(binary.LittleEndian.Uint32(data[i*12:])),
			math.Float32frombits(binary.LittleEndian.Uint32(data[i*12+4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(data[i*12+8:])),
		}
	}
	return out, nil
}

// readIndices reads a SCALAR accessor as uint32 indices, widening the 8- and
// 16-bit component types the format allows.
func (f *gltfFile) readIndices(index int) ([]uint32, error) {
	acc := &f.doc.Accessors[index]
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor is not SCALAR: type=%s", acc.Type)
	}
	data, err := f.accessorBytes(index)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i := range out {
			out[i] = uint32(data[i])
		}
	case gltfComponentTypeUnsignedShort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case gltfComponentTypeUnsignedInt:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("unsupported index component type: %d", acc.ComponentType)
	}
	return out, nil
}

// componentByteSize returns the byte size of an accessor component type.
func componentByteSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// accessorComponents returns the component count of an accessor type.
func accessorComponents(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4, gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
