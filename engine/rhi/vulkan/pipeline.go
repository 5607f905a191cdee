package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/rhi"
)

/**
 * @brief Holds a compiled Vulkan pipeline with its layout and the
 * descriptor-set layout derived from the snapshot's resource bindings.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
	/** @brief The single per-pipeline descriptor-set layout. */
	DescriptorSetLayout vk.DescriptorSetLayout
}

func convAttributes(attributes []rhi.VertexAttribute) ([]vk.VertexInputAttributeDescription, error) {
	out := make([]vk.VertexInputAttributeDescription, 0, len(attributes))
	for _, attribute := range attributes {
		format, err := convFormat(attribute.Format)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attribute.Name, err)
		}
		out = append(out, vk.VertexInputAttributeDescription{
			Location: attribute.Location,
			Binding:  attribute.Binding,
			Format:   format,
			Offset:   attribute.Offset,
		})
	}
	return out, nil
}

// PipelineCompile assembles an immutable graphics pipeline from a snapshot
// description. Every translation error aborts compilation.
func PipelineCompile(context *VulkanContext, lockPool *VulkanLockPool, desc *rhi.PipelineDescription,
	vertexModule, pixelModule *VulkanShaderModule) (*VulkanPipeline, error) {

	outPipeline := &VulkanPipeline{}

	topology, err := convTopology(desc.Topology)
	if err != nil {
		return nil, err
	}
	cullMode, err := convCullMode(desc.Rasterizer.CullMode)
	if err != nil {
		return nil, err
	}
	polygonMode, err := convPolygonMode(desc.Rasterizer.FillMode)
	if err != nil {
		return nil, err
	}
	attributes, err := convAttributes(desc.Attributes)
	if err != nil {
		return nil, err
	}
	renderPass, err := RenderPassObtain(context, desc)
	if err != nil {
		return nil, err
	}

	// Viewport state. A snapshot without a pinned viewport compiles with a
	// placeholder and resolves it per-draw through dynamic state.
	viewport := vk.Viewport{
		X:        desc.Viewport.X,
		Y:        desc.Viewport.Y,
		Width:    desc.Viewport.Width,
		Height:   desc.Viewport.Height,
		MinDepth: desc.Viewport.DepthMin,
		MaxDepth: desc.Viewport.DepthMax,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: desc.Scissor.Left, Y: desc.Scissor.Top},
		Extent: vk.Extent2D{Width: uint32(desc.Scissor.Width()), Height: uint32(desc.Scissor.Height())},
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}
	viewportState.Deref()

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             polygonMode,
		LineWidth:               desc.Rasterizer.LineWidth,
		CullMode:                vk.CullModeFlags(cullMode),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
	if desc.Rasterizer.DepthClampEnabled {
		rasterizerCreateInfo.DepthClampEnable = vk.True
	}
	rasterizerCreateInfo.Deref()

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}
	multisamplingCreateInfo.Deref()

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		StencilTestEnable: vk.False,
	}
	if desc.DepthStencil.DepthTestEnabled {
		depthCompareOp, err := convCompareOp(desc.DepthStencil.DepthFunction)
		if err != nil {
			return nil, err
		}
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthCompareOp = depthCompareOp
	}
	if desc.DepthStencil.DepthWriteEnabled {
		depthStencil.DepthWriteEnable = vk.True
	}
	if desc.DepthStencil.StencilTestEnabled {
		stencilCompareOp, err := convCompareOp(desc.DepthStencil.StencilFunction)
		if err != nil {
			return nil, err
		}
		failOp, err := convStencilOp(desc.DepthStencil.StencilFailOp)
		if err != nil {
			return nil, err
		}
		depthFailOp, err := convStencilOp(desc.DepthStencil.StencilDepthFailOp)
		if err != nil {
			return nil, err
		}
		passOp, err := convStencilOp(desc.DepthStencil.StencilPassOp)
		if err != nil {
			return nil, err
		}
		stencilOpState := vk.StencilOpState{
			FailOp:      failOp,
			PassOp:      passOp,
			DepthFailOp: depthFailOp,
			CompareOp:   stencilCompareOp,
			CompareMask: 0xff,
			WriteMask:   0xff,
		}
		depthStencil.StencilTestEnable = vk.True
		depthStencil.Front = stencilOpState
		depthStencil.Back = stencilOpState
	}
	depthStencil.Deref()

	// Color blending, one attachment state per color target.
	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if desc.Blend.Enabled {
		srcBlend, err := convBlendFactor(desc.Blend.SrcBlend)
		if err != nil {
			return nil, err
		}
		dstBlend, err := convBlendFactor(desc.Blend.DstBlend)
		if err != nil {
			return nil, err
		}
		blendOp, err := convBlendOp(desc.Blend.Op)
		if err != nil {
			return nil, err
		}
		srcBlendAlpha, err := convBlendFactor(desc.Blend.SrcBlendAlpha)
		if err != nil {
			return nil, err
		}
		dstBlendAlpha, err := convBlendFactor(desc.Blend.DstBlendAlpha)
		if err != nil {
			return nil, err
		}
		blendOpAlpha, err := convBlendOp(desc.Blend.OpAlpha)
		if err != nil {
			return nil, err
		}
		colorBlendAttachmentState.BlendEnable = vk.True
		colorBlendAttachmentState.SrcColorBlendFactor = srcBlend
		colorBlendAttachmentState.DstColorBlendFactor = dstBlend
		colorBlendAttachmentState.ColorBlendOp = blendOp
		colorBlendAttachmentState.SrcAlphaBlendFactor = srcBlendAlpha
		colorBlendAttachmentState.DstAlphaBlendFactor = dstBlendAlpha
		colorBlendAttachmentState.AlphaBlendOp = blendOpAlpha
	}
	colorBlendAttachmentState.Deref()

	attachmentStates := make([]vk.PipelineColorBlendAttachmentState, len(desc.ColorFormats))
	for i := range attachmentStates {
		attachmentStates[i] = colorBlendAttachmentState
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(attachmentStates)),
		PAttachments:    attachmentStates,
	}
	colorBlendStateCreateInfo.Deref()

	// Dynamic state, driven by what the snapshot left unpinned.
	var dynamicStates []vk.DynamicState
	for _, ds := range desc.DynamicStates {
		switch ds {
		case rhi.DynamicStateViewport:
			dynamicStates = append(dynamicStates, vk.DynamicStateViewport)
		case rhi.DynamicStateScissor:
			dynamicStates = append(dynamicStates, vk.DynamicStateScissor)
		}
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}
	dynamicStateCreateInfo.Deref()

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    desc.Stride,
		InputRate: vk.VertexInputRateVertex,
	}
	bindingDescription.Deref()

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
	vertexInputInfo.Deref()

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               topology,
		PrimitiveRestartEnable: vk.False,
	}
	inputAssembly.Deref()

	// Shader stages
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vertexModule.Stage,
			Module: vertexModule.Handle,
			PName:  VulkanSafeString(desc.VertexShader.EntryPoint),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  pixelModule.Stage,
			Module: pixelModule.Handle,
			PName:  VulkanSafeString(desc.PixelShader.EntryPoint),
		},
	}

	// Descriptor-set layout and pipeline layout.
	descriptorSetLayout, err := DescriptorSetLayoutCreate(context, desc.DescriptorBindings)
	if err != nil {
		return nil, err
	}
	outPipeline.DescriptorSetLayout = descriptorSetLayout

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{descriptorSetLayout},
	}
	pipelineLayoutCreateInfo.Deref()

	var pPipelineLayout vk.PipelineLayout
	if err := lockPool.SafeCall(PipelineManagement, func() error {
		result := vk.CreatePipelineLayout(
			context.Device.LogicalDevice,
			&pipelineLayoutCreateInfo,
			context.Allocator,
			&pPipelineLayout)
		if !VulkanResultIsSuccess(result) {
			return fmt.Errorf("vkCreatePipelineLayout failed with %s", VulkanResultString(result))
		}
		outPipeline.PipelineLayout = pPipelineLayout
		return nil
	}); err != nil {
		outPipeline.Destroy(context, lockPool)
		return nil, err
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          renderPass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	pipelineCreateInfo.Deref()

	pPipelines := make([]vk.Pipeline, 1)
	if err := lockPool.SafeCall(PipelineManagement, func() error {
		result := vk.CreateGraphicsPipelines(
			context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			context.Allocator,
			pPipelines)
		if !VulkanResultIsSuccess(result) {
			return fmt.Errorf("vkCreateGraphicsPipelines failed with %s", VulkanResultString(result))
		}
		return nil
	}); err != nil {
		outPipeline.Destroy(context, lockPool)
		return nil, err
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Graphics pipeline created!")
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext, lockPool *VulkanLockPool) error {
	if pipeline.Handle != vk.NullPipeline {
		if err := lockPool.SafeCall(PipelineManagement, func() error {
			vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
			pipeline.Handle = vk.NullPipeline
			return nil
		}); err != nil {
			return err
		}
	}
	if pipeline.PipelineLayout != vk.NullPipelineLayout {
		if err := lockPool.SafeCall(PipelineManagement, func() error {
			vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.PipelineLayout, context.Allocator)
			pipeline.PipelineLayout = vk.NullPipelineLayout
			return nil
		}); err != nil {
			return err
		}
	}
	if pipeline.DescriptorSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, pipeline.DescriptorSetLayout, context.Allocator)
		pipeline.DescriptorSetLayout = vk.NullDescriptorSetLayout
	}
	return nil
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer, lockPool *VulkanLockPool) error {
	return lockPool.SafeCall(CommandBufferManagement, func() error {
		vk.CmdBindPipeline(commandBuffer.Handle, vk.PipelineBindPointGraphics, pipeline.Handle)
		return nil
	})
}
