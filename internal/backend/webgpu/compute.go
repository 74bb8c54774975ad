//go:build windows

package webgpu

import (
	"encoding/binary"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"

	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/tensor"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Auto layout (nil layout)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer rounded up to 16 bytes.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer copies a storage buffer back to CPU memory through a staging buffer.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, dst []byte) error {
	size := uint64(len(dst))
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return errors.Wrap(err, "map staging buffer")
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(dst, unsafe.Slice((*byte)(mappedPtr), size))
	stagingBuffer.Unmap()
	return nil
}

// kernelParams mirrors the WGSL Params struct shared by both shaders.
type kernelParams struct {
	channels, dense, compact, total int
}

func (p kernelParams) bytes() []byte {
	buf := make([]byte, 16)
	for i, v := range []int{p.channels, p.dense, p.compact, p.total} {
		//nolint:gosec // G115: sizes are bounded by 8^MaxDepth times the channel count
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

// dispatchSize spreads ceil(total/workgroupSize) workgroups over x and y.
func dispatchSize(total int) (x, y uint32) {
	groups := (total + workgroupSize - 1) / workgroupSize
	if groups <= maxWorkgroupsPerDim {
		return uint32(groups), 1 //nolint:gosec // G115: groups <= maxWorkgroupsPerDim
	}
	rows := (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	return maxWorkgroupsPerDim, uint32(rows) //nolint:gosec // G115: bounded by total
}

// runIndexed executes one of the two kernels: src and index are bound as
// read-only storage, result is written into dst.
func (b *Backend) runIndexed(shaderName, shaderCode string, dst, src *tensor.Feature, index []int32, p kernelParams) error {
	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferSrc := b.createBuffer(float32Bytes(src.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferSrc.Release()

	bufferIndex := b.createBuffer(int32Bytes(index), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferIndex.Release()

	//nolint:gosec // G115: Safe conversion, ByteSize() returns non-negative int
	resultSize := uint64(dst.ByteSize())
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	bufferParams := b.createUniformBuffer(p.bytes())
	defer bufferParams.Release()

	//nolint:gosec // G115: Safe conversion, sizes are non-negative
	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferSrc, 0, uint64(src.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferIndex, 0, uint64(len(index)*4)),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	x, y := dispatchSize(p.total)
	computePass.DispatchWorkgroups(x, y, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	return b.readBuffer(bufferResult, float32Bytes(dst.Data()))
}

// PadForward scatters the compact src into the dense dst on the GPU.
func (b *Backend) PadForward(dst, src *tensor.Feature, children octree.ChildrenIndex) error {
	if err := checkShapes(dst, src, children); err != nil {
		return errors.Wrap(err, "pad forward")
	}
	if dst.NumElements() == 0 {
		return nil
	}
	if src.NumElements() == 0 {
		// Every node is empty; WebGPU rejects zero-sized bindings.
		clear(dst.Data())
		return nil
	}
	p := kernelParams{
		channels: dst.Channels(),
		dense:    dst.Nodes(),
		compact:  src.Nodes(),
		total:    dst.NumElements(),
	}
	return b.runIndexed("octree_pad", padShader, dst, src, children, p)
}

// PadBackward gathers the non-empty rows of the dense src into the compact dst on the GPU.
func (b *Backend) PadBackward(dst, src *tensor.Feature, children octree.ChildrenIndex) error {
	if err := checkShapes(src, dst, children); err != nil {
		return errors.Wrap(err, "pad backward")
	}
	if dst.NumElements() == 0 {
		return nil
	}
	p := kernelParams{
		channels: dst.Channels(),
		dense:    src.Nodes(),
		compact:  dst.Nodes(),
		total:    dst.NumElements(),
	}
	return b.runIndexed("octree_depad", depadShader, dst, src, children.Inverse(dst.Nodes()), p)
}

// checkShapes validates the kernel inputs. The children index is checked in
// full because an out-of-range rank would read outside a GPU buffer.
func checkShapes(dense, compact *tensor.Feature, children octree.ChildrenIndex) error {
	if dense.Channels() != compact.Channels() {
		return errors.Errorf("channel mismatch: dense %d, compact %d", dense.Channels(), compact.Channels())
	}
	if dense.Nodes() != len(children) {
		return errors.Errorf("dense tensor has %d nodes, children index has %d", dense.Nodes(), len(children))
	}
	return errors.Wrap(children.Validate(compact.Nodes()), "children index")
}

func float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy reinterpretation of float32 storage
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

func int32Bytes(data []int32) []byte {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy reinterpretation of int32 storage
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}
