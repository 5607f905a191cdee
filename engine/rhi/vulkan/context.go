package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/core"
)

type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	// One primary command buffer; this layer records binds into it between
	// frame begin/end. Submission/present belongs to the swapchain
	// collaborator.
	CommandBuffer *VulkanCommandBuffer

	// Render passes derived per render-target format combination, keyed by
	// the format signature.
	RenderPasses map[string]*VulkanRenderPass

	InFlightFence *VulkanFence
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
