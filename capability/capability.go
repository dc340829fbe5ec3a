// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package capability parses and prints SPIR-V capability names.
//
// Capability names are the enumerant names from the SPIR-V specification,
// matched case-sensitively:
//
//	c, err := capability.Parse("Int8")
//	set, err := capability.ParseAll([]string{"Int8", "Float64"})
package capability

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Capability is a SPIR-V capability enumerant.
type Capability uint32

// ErrUnknown is returned when a name is not a known capability.
var ErrUnknown = errors.New("unknown capability")

// Capabilities referenced directly by the build pipeline.
const (
	Matrix  Capability = 0
	Shader  Capability = 1
	Float16 Capability = 9
	Float64 Capability = 10
	Int64   Capability = 11
	Int16   Capability = 22
	Int8    Capability = 39
)

// names maps canonical enumerant names to their values.
var names = map[string]Capability{
	"Matrix":                                    0,
	"Shader":                                    1,
	"Geometry":                                  2,
	"Tessellation":                              3,
	"Addresses":                                 4,
	"Linkage":                                   5,
	"Kernel":                                    6,
	"Vector16":                                  7,
	"Float16Buffer":                             8,
	"Float16":                                   9,
	"Float64":                                   10,
	"Int64":                                     11,
	"Int64Atomics":                              12,
	"ImageBasic":                                13,
	"ImageReadWrite":                            14,
	"ImageMipmap":                               15,
	"Pipes":                                     17,
	"Groups":                                    18,
	"DeviceEnqueue":                             19,
	"LiteralSampler":                            20,
	"AtomicStorage":                             21,
	"Int16":                                     22,
	"TessellationPointSize":                     23,
	"GeometryPointSize":                         24,
	"ImageGatherExtended":                       25,
	"StorageImageMultisample":                   27,
	"UniformBufferArrayDynamicIndexing":         28,
	"SampledImageArrayDynamicIndexing":          29,
	"StorageBufferArrayDynamicIndexing":         30,
	"StorageImageArrayDynamicIndexing":          31,
	"ClipDistance":                              32,
	"CullDistance":                              33,
	"ImageCubeArray":                            34,
	"SampleRateShading":                         35,
	"ImageRect":                                 36,
	"SampledRect":                               37,
	"GenericPointer":                            38,
	"Int8":                                      39,
	"InputAttachment":                           40,
	"SparseResidency":                           41,
	"MinLod":                                    42,
	"Sampled1D":                                 43,
	"Image1D":                                   44,
	"SampledCubeArray":                          45,
	"SampledBuffer":                             46,
	"ImageBuffer":                               47,
	"ImageMSArray":                              48,
	"StorageImageExtendedFormats":               49,
	"ImageQuery":                                50,
	"DerivativeControl":                         51,
	"InterpolationFunction":                     52,
	"TransformFeedback":                         53,
	"GeometryStreams":                           54,
	"StorageImageReadWithoutFormat":             55,
	"StorageImageWriteWithoutFormat":            56,
	"MultiViewport":                             57,
	"SubgroupDispatch":                          58,
	"NamedBarrier":                              59,
	"PipeStorage":                               60,
	"GroupNonUniform":                           61,
	"GroupNonUniformVote":                       62,
	"GroupNonUniformArithmetic":                 63,
	"GroupNonUniformBallot":                     64,
	"GroupNonUniformShuffle":                    65,
	"GroupNonUniformShuffleRelative":            66,
	"GroupNonUniformClustered":                  67,
	"GroupNonUniformQuad":                       68,
	"ShaderLayer":                               69,
	"ShaderViewportIndex":                       70,
	"SubgroupBallotKHR":                         4423,
	"DrawParameters":                            4427,
	"WorkgroupMemoryExplicitLayoutKHR":          4428,
	"SubgroupVoteKHR":                           4431,
	"StorageBuffer16BitAccess":                  4433,
	"UniformAndStorageBuffer16BitAccess":        4434,
	"StoragePushConstant16":                     4435,
	"StorageInputOutput16":                      4436,
	"DeviceGroup":                               4437,
	"MultiView":                                 4439,
	"VariablePointersStorageBuffer":             4441,
	"VariablePointers":                          4442,
	"AtomicStorageOps":                          4445,
	"SampleMaskPostDepthCoverage":               4447,
	"StorageBuffer8BitAccess":                   4448,
	"UniformAndStorageBuffer8BitAccess":         4449,
	"StoragePushConstant8":                      4450,
	"DenormPreserve":                            4464,
	"DenormFlushToZero":                         4465,
	"SignedZeroInfNanPreserve":                  4466,
	"RoundingModeRTE":                           4467,
	"RoundingModeRTZ":                           4468,
	"RayQueryProvisionalKHR":                    4471,
	"RayQueryKHR":                               4472,
	"RayTraversalPrimitiveCullingKHR":           4478,
	"RayTracingKHR":                             4479,
	"Float16ImageAMD":                           5008,
	"ImageGatherBiasLodAMD":                     5009,
	"FragmentMaskAMD":                           5010,
	"StencilExportEXT":                          5013,
	"ImageReadWriteLodAMD":                      5015,
	"Int64ImageEXT":                             5016,
	"ShaderClockKHR":                            5055,
	"SampleMaskOverrideCoverageNV":              5249,
	"GeometryShaderPassthroughNV":               5251,
	"ShaderViewportIndexLayerEXT":               5254,
	"ShaderViewportMaskNV":                      5255,
	"ShaderStereoViewNV":                        5259,
	"PerViewAttributesNV":                       5260,
	"FragmentFullyCoveredEXT":                   5265,
	"MeshShadingNV":                             5266,
	"ImageFootprintNV":                          5282,
	"MeshShadingEXT":                            5283,
	"FragmentBarycentricKHR":                    5284,
	"ComputeDerivativeGroupQuadsNV":             5288,
	"FragmentDensityEXT":                        5291,
	"GroupNonUniformPartitionedNV":              5297,
	"ShaderNonUniform":                          5301,
	"RuntimeDescriptorArray":                    5302,
	"InputAttachmentArrayDynamicIndexing":       5303,
	"UniformTexelBufferArrayDynamicIndexing":    5304,
	"StorageTexelBufferArrayDynamicIndexing":    5305,
	"UniformBufferArrayNonUniformIndexing":      5306,
	"SampledImageArrayNonUniformIndexing":       5307,
	"StorageBufferArrayNonUniformIndexing":      5308,
	"StorageImageArrayNonUniformIndexing":       5309,
	"InputAttachmentArrayNonUniformIndexing":    5310,
	"UniformTexelBufferArrayNonUniformIndexing": 5311,
	"StorageTexelBufferArrayNonUniformIndexing": 5312,
	"RayTracingNV":                              5340,
	"VulkanMemoryModel":                         5345,
	"VulkanMemoryModelDeviceScope":              5346,
	"PhysicalStorageBufferAddresses":            5347,
	"ComputeDerivativeGroupLinearNV":            5350,
	"RayTracingProvisionalKHR":                  5353,
	"CooperativeMatrixNV":                       5357,
	"FragmentShaderSampleInterlockEXT":          5363,
	"FragmentShaderShadingRateInterlockEXT":     5372,
	"ShaderSMBuiltinsNV":                        5373,
	"FragmentShaderPixelInterlockEXT":           5378,
	"DemoteToHelperInvocation":                  5379,
	"DotProductInputAll":                        6016,
	"DotProductInput4x8Bit":                     6017,
	"DotProductInput4x8BitPacked":               6018,
	"DotProduct":                                6019,
	"GroupNonUniformRotateKHR":                  6026,
	"AtomicFloat32AddEXT":                       6033,
	"AtomicFloat64AddEXT":                       6034,
	"AtomicFloat16AddEXT":                       6095,
}

// aliases are alternate spellings kept by the SPIR-V grammar for
// capabilities that were promoted from extensions.
var aliases = map[string]Capability{
	"StorageUniformBufferBlock16":       4433,
	"StorageUniform16":                  4434,
	"FragmentBarycentricNV":             5284,
	"ShadingRateNV":                     5291,
	"ShaderNonUniformEXT":               5301,
	"RuntimeDescriptorArrayEXT":         5302,
	"VulkanMemoryModelKHR":              5345,
	"VulkanMemoryModelDeviceScopeKHR":   5346,
	"PhysicalStorageBufferAddressesEXT": 5347,
	"DemoteToHelperInvocationEXT":       5379,
}

var byValue = func() map[Capability]string {
	m := make(map[Capability]string, len(names))
	for name, c := range names {
		m[c] = name
	}
	return m
}()

// Parse returns the capability with the given enumerant name.
func Parse(name string) (Capability, error) {
	if c, ok := names[name]; ok {
		return c, nil
	}
	if c, ok := aliases[name]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("failed to parse capability %q: %w", name, ErrUnknown)
}

// String returns the canonical enumerant name, or a numeric form for
// values this package does not know.
func (c Capability) String() string {
	if name, ok := byValue[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", uint32(c))
}

// Set is an ordered, duplicate-free collection of capabilities.
// The zero value is an empty set.
type Set struct {
	caps []Capability
}

// NewSet returns a set holding caps, sorted by value.
func NewSet(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

// ParseAll parses every name and returns them as a set. The first
// unparseable name aborts parsing.
func ParseAll(list []string) (Set, error) {
	var s Set
	for _, name := range list {
		c, err := Parse(strings.TrimSpace(name))
		if err != nil {
			return Set{}, err
		}
		s = s.With(c)
	}
	return s, nil
}

// With returns a copy of s that also contains c.
func (s Set) With(c Capability) Set {
	i, found := slices.BinarySearch(s.caps, c)
	if found {
		return s
	}
	caps := make([]Capability, 0, len(s.caps)+1)
	caps = append(caps, s.caps[:i]...)
	caps = append(caps, c)
	caps = append(caps, s.caps[i:]...)
	return Set{caps: caps}
}

// Has reports whether c is in the set.
func (s Set) Has(c Capability) bool {
	_, found := slices.BinarySearch(s.caps, c)
	return found
}

// Len returns the number of capabilities in the set.
func (s Set) Len() int { return len(s.caps) }

// Slice returns the capabilities in ascending order.
func (s Set) Slice() []Capability {
	return slices.Clone(s.caps)
}

// Strings returns the capability names in ascending value order.
func (s Set) Strings() []string {
	out := make([]string, len(s.caps))
	for i, c := range s.caps {
		out[i] = c.String()
	}
	return out
}

// Names returns every canonical capability name, sorted.
func Names() []string {
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
