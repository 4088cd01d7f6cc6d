// package shader provides WGSL shader handles and a caching factory that loads
// shader source from a file system. The factory cache can be cleared so that a
// shader reload picks up edited source without restarting the engine.
package shader

import (
	"fmt"
	"io/fs"
	"sync"
)

// ShaderType identifies whether a shader is a vertex, fragment, or compute shader.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string
}

// Shader defines the interface for a loaded WGSL shader. It exposes the
// shader's unique key, source code, stage, and entry point needed for
// pipeline creation.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Type retrieves the stage this shader belongs to.
	//
	// Returns:
	//   - ShaderType: the shader stage (vertex, fragment, or compute)
	Type() ShaderType

	// EntryPoint retrieves the entry point function name for this shader.
	//
	// Returns:
	//   - string: the entry point function name
	EntryPoint() string
}

var _ Shader = &shader{}

// NewShader creates a Shader from in-memory WGSL source.
//
// Parameters:
//   - key: the unique key for this shader
//   - shaderType: the stage this shader belongs to
//   - source: the WGSL source text
//   - entryPoint: the entry point function name
//
// Returns:
//   - Shader: a new Shader instance
func NewShader(key string, shaderType ShaderType, source, entryPoint string) Shader {
	return &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: entryPoint,
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Type() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

// factory is the implementation of the Factory interface.
type factory struct {
	mu *sync.Mutex

	// fsys is the file system shader source is loaded from
	fsys fs.FS
	// cache maps cache keys (path + entry point) to loaded shaders
	cache map[string]Shader
}

// Factory loads WGSL shaders from a file system with caching. A cleared cache
// causes subsequent loads to re-read source from the file system, which is how
// shader hot reload works.
type Factory interface {
	// Load returns the shader at the given path within the factory's file
	// system, reading and caching it on first use. A path may be loaded more
	// than once with different stages/entry points; each combination is cached
	// independently while sharing the same source file.
	//
	// Parameters:
	//   - path: the file path of the WGSL source within the factory's file system
	//   - shaderType: the stage the entry point belongs to
	//   - entryPoint: the entry point function name
	//
	// Returns:
	//   - Shader: the loaded shader
	//   - error: error if the source could not be read
	Load(path string, shaderType ShaderType, entryPoint string) (Shader, error)

	// ClearCache drops every cached shader so the next Load re-reads source
	// from the file system.
	ClearCache()
}

var _ Factory = &factory{}

// NewFactory creates a shader Factory over the given file system.
//
// Parameters:
//   - fsys: the file system containing WGSL source files
//
// Returns:
//   - Factory: a new caching shader factory
func NewFactory(fsys fs.FS) Factory {
	return &factory{
		mu:    &sync.Mutex{},
		fsys:  fsys,
		cache: make(map[string]Shader),
	}
}

func (f *factory) Load(path string, shaderType ShaderType, entryPoint string) (Shader, error) {
	key := path + ":" + entryPoint

	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.cache[key]; ok {
		return s, nil
	}

	data, err := fs.ReadFile(f.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader %s: %w", path, err)
	}

	s := NewShader(key, shaderType, string(data), entryPoint)
	f.cache[key] = s
	return s, nil
}

func (f *factory) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]Shader)
}
