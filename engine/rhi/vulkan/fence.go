package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func FenceCreate(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateFence failed with %s", VulkanResultString(res))
	}
	fence.Handle = handle

	return fence, nil
}

func (fence *VulkanFence) Destroy(context *VulkanContext) {
	if fence.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, fence.Handle, context.Allocator)
		fence.Handle = vk.NullFence
	}
	fence.IsSignaled = false
}

// Wait blocks until the fence signals or the timeout elapses. Pass
// math.MaxUint64 for an unbounded wait.
func (fence *VulkanFence) Wait(context *VulkanContext, timeoutNS uint64) bool {
	if fence.IsSignaled {
		return true
	}

	res := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{fence.Handle}, vk.True, timeoutNS)
	if res == vk.Success {
		fence.IsSignaled = true
		return true
	}
	return false
}

func (fence *VulkanFence) WaitIdle(context *VulkanContext) bool {
	return fence.Wait(context, math.MaxUint64)
}

func (fence *VulkanFence) Reset(context *VulkanContext) error {
	if !fence.IsSignaled {
		return nil
	}
	if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{fence.Handle}); res != vk.Success {
		return fmt.Errorf("vkResetFences failed with %s", VulkanResultString(res))
	}
	fence.IsSignaled = false
	return nil
}
