// package shaders embeds the WGSL source files for every render pass. The
// engine mounts this file system into a shader factory; a shader reload clears
// the factory cache and re-reads the embedded sources.
package shaders

import "embed"

//go:embed *.wgsl
var FS embed.FS
