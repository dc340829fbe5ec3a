// Command spvbuild compiles a WGSL shader to SPIR-V modules on disk.
//
// Usage:
//
//	spvbuild [flags] <path>
//	spvbuild inspect <file.spv>...
//	spvbuild version
//
// Examples:
//
//	spvbuild shaders/main.wgsl                      # writes shaders/main.spv
//	spvbuild --multimodule -o out shaders/main.wgsl # one .spv per entry point
//	spvbuild --capabilities Int8,Float64 shader.wgsl
//	spvbuild --watch shaders/main.wgsl              # rebuild on every save
package main

import (
	"fmt"
	"os"
)

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spvbuild: %v\n", err)
		os.Exit(1)
	}
}
