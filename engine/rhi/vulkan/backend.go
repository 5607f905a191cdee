package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/rhi"
)

// Native payloads handed back through the opaque resource handles.

type VulkanVertexBuffer struct {
	Buffer *VulkanBuffer
	Stride uint32
}

type VulkanIndexBuffer struct {
	Buffer     *VulkanBuffer
	IndexCount uint32
}

type VulkanConstantBuffer struct {
	Buffer       *VulkanBuffer
	Stride       uint32
	ElementCount uint32
	Dynamic      bool
}

type VulkanTexture struct {
	Image *VulkanImage
}

type VulkanSampler struct {
	Handle vk.Sampler
}

// pendingState accumulates category binds between pipeline binds. On this
// backend most categories are baked into the compiled pipeline; only the
// truly per-draw pieces are replayed when a pipeline is bound.
type pendingState struct {
	viewport    rhi.Viewport
	hasViewport bool
	scissor     rhi.ScissorRect
	hasScissor  bool

	vertexBuffer *VulkanVertexBuffer
	indexBuffer  *VulkanIndexBuffer

	samplers        map[uint32]*VulkanSampler
	textures        map[uint32]*VulkanTexture
	constantBuffers []rhi.ConstantBufferBinding
}

var _ rhi.GraphicsBackend = (*Backend)(nil)

// Backend is the explicit-pipeline implementation: immutable compiled
// pipeline objects, descriptor sets and dynamic state for whatever the
// snapshot left unpinned.
type Backend struct {
	cfg  *config.RendererConfig
	caps *rhi.Capabilities

	context  *VulkanContext
	lockPool *VulkanLockPool

	descriptorPool vk.DescriptorPool

	pending     pendingState
	initialized bool
}

func New() *Backend {
	return &Backend{
		context: &VulkanContext{
			Allocator:    nil,
			Device:       &VulkanDevice{GraphicsQueueIndex: -1},
			RenderPasses: make(map[string]*VulkanRenderPass),
		},
		pending: pendingState{
			samplers: make(map[uint32]*VulkanSampler),
			textures: make(map[uint32]*VulkanTexture),
		},
	}
}

func (b *Backend) Kind() rhi.BackendKind { return rhi.BackendExplicit }
func (b *Backend) Name() string { return "vulkan" }

func (b *Backend) Initialize(cfg *config.RendererConfig) (*rhi.Capabilities, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, fmt.Errorf("vulkan loader unavailable: GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize vulkan: %w", err)
	}

	b.cfg = cfg
	b.lockPool = NewVulkanLockPool(cfg.EnableMultithreadProtection)

	preferred := cfg.PreferredCapabilityLevels
	if len(preferred) == 0 {
		preferred = config.DefaultCapabilityLevels()
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         apiVersionForLevel(preferred[0]),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(cfg.ApplicationName),
		PEngineName:        VulkanSafeString("Titan Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, glfw.GetRequiredInstanceExtensions()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	// A requested debug layer that is unavailable degrades with one warning;
	// it never fails device creation on its own.
	debugEnabled := cfg.EnableDebugLayer
	if debugEnabled && !validationLayerAvailable() {
		core.LogWarn("Validation layer %s requested but not present, continuing without the debug layer.", validationLayerName)
		debugEnabled = false
	}

	var layerNames []string
	if debugEnabled {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		layerNames = []string{validationLayerName}
		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layerNames)

	if res := vk.CreateInstance(&createInfo, b.context.Allocator, &b.context.Instance); res != vk.Success {
		return nil, fmt.Errorf("vkCreateInstance failed with %s", VulkanResultString(res))
	}
	if err := vk.InitInstance(b.context.Instance); err != nil {
		return nil, err
	}
	core.LogInfo("Vulkan Instance created.")

	if debugEnabled {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if res := vk.CreateDebugReportCallback(b.context.Instance, &debugCreateInfo, nil, &dbg); res != vk.Success {
			return nil, fmt.Errorf("vkCreateDebugReportCallback failed with %s", VulkanResultString(res))
		}
		b.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	if err := DeviceCreate(b.context, b.lockPool); err != nil {
		return nil, err
	}

	b.context.Device.Properties.Deref()
	b.context.Device.Properties.Limits.Deref()
	b.context.Device.Features.Deref()

	level, err := negotiateLevel(preferred, b.context.Device.Properties.ApiVersion)
	if err != nil {
		return nil, err
	}

	commandBuffer, err := CommandBufferAllocate(b.context, b.context.Device.GraphicsCommandPool, true)
	if err != nil {
		return nil, err
	}
	b.context.CommandBuffer = commandBuffer

	fence, err := FenceCreate(b.context, true)
	if err != nil {
		return nil, err
	}
	b.context.InFlightFence = fence

	if err := b.createDescriptorPool(); err != nil {
		return nil, err
	}

	limits := b.context.Device.Properties.Limits
	maxLineWidth := float32(1.0)
	wideLines := b.context.Device.Features.WideLines == vk.True
	if wideLines {
		maxLineWidth = limits.LineWidthRange[1]
	}

	b.caps = &rhi.Capabilities{
		Level:                 level,
		AdapterName:           vk.ToString(b.context.Device.Properties.DeviceName[:]),
		MaxTextureDimension2D: limits.MaxImageDimension2D,
		SupportsWideLines:     wideLines,
		MaxLineWidth:          maxLineWidth,
		MaxAnisotropy:         limits.MaxSamplerAnisotropy,
		DebugLayerEnabled:     debugEnabled,
		MultithreadProtected:  cfg.EnableMultithreadProtection,
	}
	b.initialized = true

	core.LogInfo("Vulkan backend initialized at capability level %s.", level)
	return b.caps, nil
}

const validationLayerName = "VK_LAYER_KHRONOS_validation"

func validationLayerAvailable() bool {
	var availableLayerCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
		return false
	}
	availableLayers := make([]vk.LayerProperties, availableLayerCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
		return false
	}
	for i := range availableLayers {
		availableLayers[i].Deref()
		end := FindFirstZeroInByteArray(availableLayers[i].LayerName[:])
		if validationLayerName == vk.ToString(availableLayers[i].LayerName[:end+1]) {
			return true
		}
	}
	return false
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint64, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] %s", pLayerPrefix, pMessage)
	default:
		core.LogWarn("[%s] %s", pLayerPrefix, pMessage)
	}
	return vk.Bool32(vk.False)
}

func (b *Backend) createDescriptorPool() error {
	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 1024},
		{Type: vk.DescriptorTypeUniformBufferDynamic, DescriptorCount: 1024},
		{Type: vk.DescriptorTypeSampler, DescriptorCount: 1024},
		{Type: vk.DescriptorTypeSampledImage, DescriptorCount: 1024},
	}
	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       1024,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(b.context.Device.LogicalDevice, &poolCreateInfo, b.context.Allocator, &pool); res != vk.Success {
		return fmt.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res))
	}
	b.descriptorPool = pool
	return nil
}

func (b *Backend) Shutdown() error {
	if !b.initialized {
		return nil
	}
	b.initialized = false

	if err := b.WaitIdle(); err != nil {
		core.LogWarn("Shutdown: WaitIdle failed: %v", err)
	}

	if b.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(b.context.Device.LogicalDevice, b.descriptorPool, b.context.Allocator)
		b.descriptorPool = vk.NullDescriptorPool
	}
	if b.context.InFlightFence != nil {
		b.context.InFlightFence.Destroy(b.context)
		b.context.InFlightFence = nil
	}
	if b.context.CommandBuffer != nil {
		b.context.CommandBuffer.Free(b.context, b.context.Device.GraphicsCommandPool)
		b.context.CommandBuffer = nil
	}
	for key, rp := range b.context.RenderPasses {
		rp.Destroy(b.context)
		delete(b.context.RenderPasses, key)
	}

	DeviceDestroy(b.context)

	if b.context.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(b.context.Instance, b.context.debugMessenger, nil)
		b.context.debugMessenger = vk.NullDebugReportCallback
	}
	if b.context.Instance != nil {
		vk.DestroyInstance(b.context.Instance, b.context.Allocator)
		b.context.Instance = nil
	}

	core.LogInfo("Vulkan backend shut down.")
	return nil
}

func (b *Backend) WaitIdle() error {
	if b.context.Device.LogicalDevice == nil {
		return core.ErrNotInitialized
	}
	return b.lockPool.SafeCall(DeviceManagement, func() error {
		if res := vk.DeviceWaitIdle(b.context.Device.LogicalDevice); res != vk.Success {
			return fmt.Errorf("vkDeviceWaitIdle failed with %s", VulkanResultString(res))
		}
		return nil
	})
}

// uint32Bytes reinterprets an index slice as its raw byte view for staging.
func uint32Bytes(indices []uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)
}

func (b *Backend) CreateVertexBuffer(data []byte, stride uint32) (interface{}, error) {
	buffer, err := uploadDeviceLocal(b.context, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), data)
	if err != nil {
		return nil, err
	}
	return &VulkanVertexBuffer{Buffer: buffer, Stride: stride}, nil
}

func (b *Backend) CreateIndexBuffer(indices []uint32) (interface{}, error) {
	buffer, err := uploadDeviceLocal(b.context, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), uint32Bytes(indices))
	if err != nil {
		return nil, err
	}
	return &VulkanIndexBuffer{Buffer: buffer, IndexCount: uint32(len(indices))}, nil
}

func (b *Backend) CreateConstantBuffer(stride, elementCount uint32, dynamic bool) (interface{}, error) {
	// Uniform data is re-written per frame, so it stays host visible.
	size := uint64(stride) * uint64(elementCount)
	buffer, err := BufferCreate(b.context, size,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	return &VulkanConstantBuffer{
		Buffer:       buffer,
		Stride:       stride,
		ElementCount: elementCount,
		Dynamic:      dynamic,
	}, nil
}

func (b *Backend) CreateTexture(desc *rhi.TextureDescription, mips [][]byte) (interface{}, error) {
	format, err := convFormat(desc.Format)
	if err != nil {
		return nil, err
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	switch desc.Usage {
	case rhi.TextureUsageRenderTarget:
		usage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	case rhi.TextureUsageDepthStencil:
		usage = vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}

	image, err := ImageCreate(b.context, desc.Width, desc.Height, desc.MipLevels, format,
		vk.ImageTilingOptimal, usage, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), aspect)
	if err != nil {
		return nil, err
	}

	if len(mips) > 0 {
		if err := b.uploadMips(image, desc, mips); err != nil {
			image.Destroy(b.context)
			return nil, err
		}
	}

	return &VulkanTexture{Image: image}, nil
}

// uploadMips stages every mip level into one buffer and copies them level by
// level inside a single-use command buffer.
func (b *Backend) uploadMips(image *VulkanImage, desc *rhi.TextureDescription, mips [][]byte) error {
	var total uint64
	for _, mip := range mips {
		total += uint64(len(mip))
	}

	staging, err := BufferCreate(b.context, total,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer staging.Destroy(b.context)

	var offset uint64
	for _, mip := range mips {
		if err := staging.LoadData(b.context, offset, uint64(len(mip)), mip); err != nil {
			return err
		}
		offset += uint64(len(mip))
	}

	cb, err := AllocateAndBeginSingleUse(b.context, b.context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	if err := image.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}

	width, height := desc.Width, desc.Height
	offset = 0
	for level, mip := range mips {
		image.CopyFromBuffer(cb, staging, uint32(level), width, height, offset)
		offset += uint64(len(mip))
		if width > 1 {
			width /= 2
		}
		if height > 1 {
			height /= 2
		}
	}

	if err := image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return err
	}
	return cb.EndSingleUse(b.context, b.context.Device.GraphicsCommandPool, b.context.Device.GraphicsQueue)
}

func (b *Backend) CreateSampler(desc *rhi.SamplerDescription) (interface{}, error) {
	handle, err := SamplerCreate(b.context, *desc)
	if err != nil {
		return nil, err
	}
	return &VulkanSampler{Handle: handle}, nil
}

func (b *Backend) CreateShaderModule(stage rhi.ShaderStage, bytecode []byte, entryPoint string) (interface{}, error) {
	return ShaderModuleCreate(b.context, stage, bytecode)
}

func (b *Backend) DestroyResource(native interface{}) error {
	switch resource := native.(type) {
	case *VulkanVertexBuffer:
		resource.Buffer.Destroy(b.context)
	case *VulkanIndexBuffer:
		resource.Buffer.Destroy(b.context)
	case *VulkanConstantBuffer:
		resource.Buffer.Destroy(b.context)
	case *VulkanTexture:
		resource.Image.Destroy(b.context)
	case *VulkanSampler:
		if resource.Handle != vk.NullSampler {
			vk.DestroySampler(b.context.Device.LogicalDevice, resource.Handle, b.context.Allocator)
			resource.Handle = vk.NullSampler
		}
	case *VulkanShaderModule:
		resource.Destroy(b.context)
	default:
		return fmt.Errorf("DestroyResource: unknown native resource %T", native)
	}
	return nil
}

// Category bind surface. Viewport and scissor resolve as dynamic state on
// the recorded command buffer; the remaining categories accumulate into the
// pending state consumed by the next pipeline bind. Shader, topology, layout,
// cull and fill are baked into compiled pipelines, so their binds are
// accepted and absorbed.

func (b *Backend) SetViewport(v rhi.Viewport) error {
	b.pending.viewport = v
	b.pending.hasViewport = true
	if b.recording() {
		viewport := vk.Viewport{
			X: v.X, Y: v.Y,
			Width: v.Width, Height: v.Height,
			MinDepth: v.DepthMin, MaxDepth: v.DepthMax,
		}
		return b.lockPool.SafeCall(CommandBufferManagement, func() error {
			vk.CmdSetViewport(b.context.CommandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
			return nil
		})
	}
	return nil
}

func (b *Backend) SetScissor(r rhi.ScissorRect) error {
	b.pending.scissor = r
	b.pending.hasScissor = true
	if b.recording() {
		scissor := vk.Rect2D{
			Offset: vk.Offset2D{X: r.Left, Y: r.Top},
			Extent: vk.Extent2D{Width: uint32(r.Width()), Height: uint32(r.Height())},
		}
		return b.lockPool.SafeCall(CommandBufferManagement, func() error {
			vk.CmdSetScissor(b.context.CommandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})
			return nil
		})
	}
	return nil
}

func (b *Backend) BindVertexShader(m *rhi.ShaderModule) error { return nil }
func (b *Backend) BindPixelShader(m *rhi.ShaderModule) error { return nil }
func (b *Backend) SetPrimitiveTopology(t rhi.PrimitiveTopology) error {
	_, err := convTopology(t)
	return err
}
func (b *Backend) SetInputLayout(l *rhi.InputLayout) error { return nil }
func (b *Backend) SetCullMode(c rhi.CullMode) error {
	_, err := convCullMode(c)
	return err
}
func (b *Backend) SetFillMode(f rhi.FillMode) error {
	_, err := convPolygonMode(f)
	return err
}

func (b *Backend) BindSamplers(startSlot uint32, samplers []*rhi.Sampler) error {
	for i, sampler := range samplers {
		native, ok := sampler.Resource().(*VulkanSampler)
		if !ok {
			return fmt.Errorf("BindSamplers: foreign sampler at slot %d", startSlot+uint32(i))
		}
		b.pending.samplers[startSlot+uint32(i)] = native
	}
	return nil
}

func (b *Backend) BindTextures(startSlot uint32, textures []*rhi.Texture) error {
	for i, texture := range textures {
		slot := startSlot + uint32(i)
		if texture == nil {
			delete(b.pending.textures, slot)
			continue
		}
		native, ok := texture.Resource().(*VulkanTexture)
		if !ok {
			return fmt.Errorf("BindTextures: foreign texture at slot %d", slot)
		}
		b.pending.textures[slot] = native
	}
	return nil
}

func (b *Backend) BindIndexBuffer(buffer *rhi.IndexBuffer) error {
	native, ok := buffer.Resource().(*VulkanIndexBuffer)
	if !ok {
		return fmt.Errorf("BindIndexBuffer: foreign native resource %T", buffer.Resource())
	}
	b.pending.indexBuffer = native
	if b.recording() {
		return b.lockPool.SafeCall(CommandBufferManagement, func() error {
			vk.CmdBindIndexBuffer(b.context.CommandBuffer.Handle, native.Buffer.Handle, 0, vk.IndexTypeUint32)
			return nil
		})
	}
	return nil
}

func (b *Backend) BindVertexBuffer(buffer *rhi.VertexBuffer) error {
	native, ok := buffer.Resource().(*VulkanVertexBuffer)
	if !ok {
		return fmt.Errorf("BindVertexBuffer: foreign native resource %T", buffer.Resource())
	}
	b.pending.vertexBuffer = native
	if b.recording() {
		return b.lockPool.SafeCall(CommandBufferManagement, func() error {
			vk.CmdBindVertexBuffers(b.context.CommandBuffer.Handle, 0, 1,
				[]vk.Buffer{native.Buffer.Handle}, []vk.DeviceSize{0})
			return nil
		})
	}
	return nil
}

func (b *Backend) BindConstantBuffers(bindings []rhi.ConstantBufferBinding) error {
	b.pending.constantBuffers = bindings
	return nil
}

func (b *Backend) recording() bool {
	return b.context.CommandBuffer != nil && b.context.CommandBuffer.State == CommandBufferStateRecording
}

// Explicit-pipeline surface.

func (b *Backend) CompilePipeline(desc *rhi.PipelineDescription) (interface{}, error) {
	vertexModule, ok := desc.VertexShader.Resource().(*VulkanShaderModule)
	if !ok {
		return nil, fmt.Errorf("CompilePipeline: foreign vertex shader module %T", desc.VertexShader.Resource())
	}
	pixelModule, ok := desc.PixelShader.Resource().(*VulkanShaderModule)
	if !ok {
		return nil, fmt.Errorf("CompilePipeline: foreign pixel shader module %T", desc.PixelShader.Resource())
	}
	return PipelineCompile(b.context, b.lockPool, desc, vertexModule, pixelModule)
}

func (b *Backend) DestroyPipeline(native interface{}) error {
	pipeline, ok := native.(*VulkanPipeline)
	if !ok {
		return fmt.Errorf("DestroyPipeline: foreign native pipeline %T", native)
	}
	return pipeline.Destroy(b.context, b.lockPool)
}

// BindPipeline binds the compiled pipeline and materializes the pending
// per-draw state: dynamic viewport/scissor and a freshly written descriptor
// set covering the accumulated resource bindings.
func (b *Backend) BindPipeline(native interface{}) error {
	pipeline, ok := native.(*VulkanPipeline)
	if !ok {
		return fmt.Errorf("BindPipeline: foreign native pipeline %T", native)
	}
	if !b.recording() {
		return fmt.Errorf("BindPipeline: no command buffer recording")
	}

	if err := pipeline.Bind(b.context.CommandBuffer, b.lockPool); err != nil {
		return err
	}

	if b.pending.hasViewport {
		if err := b.SetViewport(b.pending.viewport); err != nil {
			return err
		}
	}
	if b.pending.hasScissor {
		if err := b.SetScissor(b.pending.scissor); err != nil {
			return err
		}
	}
	if b.pending.vertexBuffer != nil {
		vb := b.pending.vertexBuffer
		if err := b.lockPool.SafeCall(CommandBufferManagement, func() error {
			vk.CmdBindVertexBuffers(b.context.CommandBuffer.Handle, 0, 1,
				[]vk.Buffer{vb.Buffer.Handle}, []vk.DeviceSize{0})
			return nil
		}); err != nil {
			return err
		}
	}
	if b.pending.indexBuffer != nil {
		ib := b.pending.indexBuffer
		if err := b.lockPool.SafeCall(CommandBufferManagement, func() error {
			vk.CmdBindIndexBuffer(b.context.CommandBuffer.Handle, ib.Buffer.Handle, 0, vk.IndexTypeUint32)
			return nil
		}); err != nil {
			return err
		}
	}

	return b.bindDescriptors(pipeline)
}

// bindDescriptors allocates one descriptor set against the pipeline's layout,
// writes the pending resources into it and binds it with the dynamic offsets
// the constant buffers carry.
func (b *Backend) bindDescriptors(pipeline *VulkanPipeline) error {
	if len(b.pending.constantBuffers) == 0 && len(b.pending.samplers) == 0 && len(b.pending.textures) == 0 {
		return nil
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     b.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{pipeline.DescriptorSetLayout},
	}
	descriptorSets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(b.context.Device.LogicalDevice, &allocateInfo, &descriptorSets[0]); res != vk.Success {
		return fmt.Errorf("vkAllocateDescriptorSets failed with %s", VulkanResultString(res))
	}

	var writes []vk.WriteDescriptorSet
	var dynamicOffsets []uint32

	for _, binding := range b.pending.constantBuffers {
		native, ok := binding.Buffer.Resource().(*VulkanConstantBuffer)
		if !ok {
			return fmt.Errorf("bindDescriptors: foreign constant buffer at slot %d", binding.Slot)
		}
		descriptorType := vk.DescriptorTypeUniformBuffer
		bufferOffset := vk.DeviceSize(binding.Buffer.Offset())
		if native.Dynamic {
			descriptorType = vk.DescriptorTypeUniformBufferDynamic
			bufferOffset = 0
			dynamicOffsets = append(dynamicOffsets, binding.Buffer.OffsetDynamic())
		}
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSets[0],
			DstBinding:      binding.Slot,
			DescriptorCount: 1,
			DescriptorType:  descriptorType,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: native.Buffer.Handle,
				Offset: bufferOffset,
				Range:  vk.DeviceSize(native.Stride),
			}},
		})
	}

	for slot, sampler := range b.pending.samplers {
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSets[0],
			DstBinding:      slot,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler: sampler.Handle,
			}},
		})
	}

	for slot, texture := range b.pending.textures {
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSets[0],
			DstBinding:      slot,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeSampledImage,
			PImageInfo: []vk.DescriptorImageInfo{{
				ImageView:   texture.Image.View,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		})
	}

	vk.UpdateDescriptorSets(b.context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)

	return b.lockPool.SafeCall(CommandBufferManagement, func() error {
		vk.CmdBindDescriptorSets(b.context.CommandBuffer.Handle, vk.PipelineBindPointGraphics,
			pipeline.PipelineLayout, 0, 1, descriptorSets,
			uint32(len(dynamicOffsets)), dynamicOffsets)
		return nil
	})
}
