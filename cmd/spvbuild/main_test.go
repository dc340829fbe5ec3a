package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gogpu/spvbuild/capability"
	"github.com/gogpu/spvbuild/config"
	"github.com/gogpu/spvbuild/spvbin"
)

const vertexShader = `
@vertex
fn main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

const pipelineShader = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @location(1) col: vec3<f32>) -> VertexOutput {
    var output: VertexOutput;
    output.position = vec4<f32>(pos.x, pos.y, pos.z, 1.0);
    output.color = col;
    return output;
}

@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color.x, color.y, color.z, 1.0);
}
`

// run executes the CLI with args and returns stdout and the error.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr, log: zap.NewNop()}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// project creates a shader directory with an isolated cache and
// environment, and returns the shader path.
func project(t *testing.T, source string) string {
	t.Helper()
	for _, k := range []string{config.EnvTarget, config.EnvOutput, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvCacheDir, t.TempDir())

	dir := filepath.Join(t.TempDir(), "proj", "shaders")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	src := filepath.Join(dir, "main.wgsl")
	require.NoError(t, os.WriteFile(src, []byte(source), 0o644))
	return src
}

func summary(t *testing.T, path string) *spvbin.Summary {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s, err := spvbin.Inspect(data)
	require.NoError(t, err)
	return s
}

func TestBuildSingleNextToSource(t *testing.T) {
	src := project(t, vertexShader)

	out, err := run(t, src)
	require.NoError(t, err)
	assert.Empty(t, out, "a successful build prints nothing")

	s := summary(t, filepath.Join(filepath.Dir(src), "main.spv"))
	require.Len(t, s.EntryPoints, 1)
	assert.Equal(t, "main", s.EntryPoints[0].Name)
}

func TestBuildFlags(t *testing.T) {
	src := project(t, vertexShader)
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := run(t,
		"--target", "spirv-unknown-vulkan1.1",
		"--capabilities", "Int8,Int16",
		"--capabilities", "Float64",
		"--extensions", "SPV_KHR_8bit_storage",
		"--spirv-metadata", "full",
		"-o", outDir,
		src)
	require.NoError(t, err)

	s := summary(t, filepath.Join(outDir, "main.spv"))
	assert.Equal(t, uint8(3), s.Header.Version.Minor)
	assert.Empty(t, cmp.Diff([]string{"Shader", "Float64", "Int16", "Int8"}, s.Capabilities.Strings()),
		"capabilities (-want +got)")
	assert.Empty(t, cmp.Diff([]string{"SPV_KHR_8bit_storage"}, s.Extensions), "extensions (-want +got)")
	assert.Positive(t, s.DebugNames)
}

func TestBuildMultimoduleFromConfig(t *testing.T) {
	src := project(t, pipelineShader)
	dir := filepath.Dir(src)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spvbuild.yaml"),
		[]byte("multimodule: true\nskip-validation: true\noutput: spv\n"), 0o644))

	_, err := run(t, src)
	require.NoError(t, err)
	for _, name := range []string{"main_vs_main.spv", "main_fs_main.spv"} {
		s := summary(t, filepath.Join(dir, "spv", name))
		assert.Len(t, s.EntryPoints, 1, name)
	}
	_, err = os.Stat(filepath.Join(dir, "spv", "main.spv"))
	assert.True(t, os.IsNotExist(err))
}

func TestFlagsOverrideConfig(t *testing.T) {
	src := project(t, vertexShader)
	dir := filepath.Dir(src)
	cfgPath := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("multimodule = true\ntarget = \"spirv-unknown-spv1.5\"\n"), 0o644))

	_, err := run(t, "--config", cfgPath, "--multimodule=false", src)
	require.NoError(t, err)

	s := summary(t, filepath.Join(dir, "main.spv"))
	assert.Equal(t, uint8(5), s.Header.Version.Minor, "target comes from the config file")
}

func TestEnvOverridesConfig(t *testing.T) {
	src := project(t, vertexShader)
	outDir := filepath.Join(t.TempDir(), "env-out")
	t.Setenv(config.EnvOutput, outDir)

	_, err := run(t, src)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "main.spv"))
	assert.NoError(t, err)
}

func TestBuildErrors(t *testing.T) {
	src := project(t, vertexShader)
	missing := filepath.Join(filepath.Dir(src), "nope.wgsl")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no path", nil, "accepts 1 arg"},
		{"missing source", []string{missing}, "nope.wgsl"},
		{"bad metadata", []string{"--spirv-metadata", "bogus", src}, "expecting one of none,full,name-variables: bogus"},
		{"empty metadata", []string{"--spirv-metadata=", src}, `invalid spirv-metadata "": expecting one of none,full,name-variables`},
		{"empty target", []string{"--target=", src}, `invalid target ""`},
		{"bad capability", []string{"--capabilities", "Int9", src}, `"Int9"`},
		{"bad target", []string{"--target", "x86_64-linux", src}, "x86_64-linux"},
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), src}, "none.yaml"},
		{"unknown flag", []string{"--frobnicate", src}, "frobnicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileErrorNamesSource(t *testing.T) {
	src := project(t, "fn main( {")
	_, err := run(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), src)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(src), "main.spv"))
	assert.True(t, os.IsNotExist(statErr), "no output on compile failure")
}

func TestInspect(t *testing.T) {
	src := project(t, vertexShader)
	_, err := run(t, src)
	require.NoError(t, err)
	spv := filepath.Join(filepath.Dir(src), "main.spv")

	out, err := run(t, "inspect", spv)
	require.NoError(t, err)
	assert.Contains(t, out, "; Version: 1.0\n")
	assert.Contains(t, out, "capabilities: Shader\n")
	assert.Contains(t, out, `entry Vertex "main"`)
	assert.NotContains(t, out, spv+":", "single file has no heading")

	out, err = run(t, "inspect", "--instructions", spv, spv)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, spv+":\n"))
	assert.Contains(t, out, "OpEntryPoint")
}

func TestInspectErrors(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.spv")
	require.NoError(t, os.WriteFile(bogus, []byte("not spir-v at all"), 0o644))

	_, err := run(t, "inspect", bogus)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bogus)

	_, err = run(t, "inspect")
	assert.Error(t, err)

	_, err = run(t, "inspect", filepath.Join(dir, "missing.spv"))
	assert.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	out, err := run(t, "capabilities")
	require.NoError(t, err)
	names := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Contains(t, names, "Shader")
	assert.Contains(t, names, "Int8")
	assert.Empty(t, cmp.Diff(capability.Names(), names), "names (-want +got)")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "spvbuild version dev (naga "), out)
}
