package shader

import (
	"testing"
	"testing/fstest"
)

func TestFactoryLoadCachesPerEntryPoint(t *testing.T) {
	fsys := fstest.MapFS{
		"lighting.wgsl": &fstest.MapFile{Data: []byte("@compute fn shade() {}")},
	}
	f := NewFactory(fsys)

	a, err := f.Load("lighting.wgsl", ShaderTypeCompute, "shade")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := f.Load("lighting.wgsl", ShaderTypeCompute, "shade")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a != b {
		t.Error("expected cached shader to be returned for identical path + entry point")
	}

	c, err := f.Load("lighting.wgsl", ShaderTypeCompute, "temporal")
	if err != nil {
		t.Fatalf("load second entry point: %v", err)
	}
	if c == a {
		t.Error("expected distinct shader per entry point")
	}
	if c.Source() != a.Source() {
		t.Error("entry points of the same file should share source")
	}
}

func TestFactoryClearCacheRereadsSource(t *testing.T) {
	file := &fstest.MapFile{Data: []byte("@compute fn pass_a() {}")}
	fsys := fstest.MapFS{"pass.wgsl": file}
	f := NewFactory(fsys)

	a, err := f.Load("pass.wgsl", ShaderTypeCompute, "pass_a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	file.Data = []byte("@compute fn pass_a() { let edited = 1; }")
	f.ClearCache()

	b, err := f.Load("pass.wgsl", ShaderTypeCompute, "pass_a")
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if b.Source() == a.Source() {
		t.Error("expected cleared cache to pick up edited source")
	}
}

func TestFactoryLoadMissingFile(t *testing.T) {
	f := NewFactory(fstest.MapFS{})
	if _, err := f.Load("missing.wgsl", ShaderTypeCompute, "main"); err == nil {
		t.Error("expected error for missing shader file")
	}
}
