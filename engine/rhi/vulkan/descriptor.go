package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/rhi"
)

func convDescriptorType(binding rhi.DescriptorBinding) (vk.DescriptorType, error) {
	switch binding.Type {
	case rhi.ResourceBindingUniformBuffer:
		if binding.DynamicOffset {
			return vk.DescriptorTypeUniformBufferDynamic, nil
		}
		return vk.DescriptorTypeUniformBuffer, nil
	case rhi.ResourceBindingSampler:
		return vk.DescriptorTypeSampler, nil
	case rhi.ResourceBindingTexture:
		return vk.DescriptorTypeSampledImage, nil
	}
	return 0, fmt.Errorf("unmapped resource binding type %d", binding.Type)
}

func convStageFlags(stage rhi.ShaderStage) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	if stage&rhi.ShaderStageVertex != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if stage&rhi.ShaderStagePixel != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	return flags
}

// DescriptorSetLayoutCreate derives the single per-pipeline set layout from
// the snapshot's resource bindings.
func DescriptorSetLayoutCreate(context *VulkanContext, bindings []rhi.DescriptorBinding) (vk.DescriptorSetLayout, error) {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, 0, len(bindings))
	for _, binding := range bindings {
		descriptorType, err := convDescriptorType(binding)
		if err != nil {
			return vk.NullDescriptorSetLayout, err
		}
		count := binding.Count
		if count == 0 {
			count = 1
		}
		layoutBindings = append(layoutBindings, vk.DescriptorSetLayoutBinding{
			Binding:         uint32(binding.Slot),
			DescriptorType:  descriptorType,
			DescriptorCount: uint32(count),
			StageFlags:      convStageFlags(binding.Stage),
		})
	}

	layoutCreateInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutCreateInfo, context.Allocator, &layout); res != vk.Success {
		return vk.NullDescriptorSetLayout, fmt.Errorf("vkCreateDescriptorSetLayout failed with %s", VulkanResultString(res))
	}
	return layout, nil
}
