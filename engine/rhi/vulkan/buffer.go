package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

type VulkanBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	TotalSize   vk.DeviceSize
	Usage       vk.BufferUsageFlags
	MemoryFlags vk.MemoryPropertyFlags
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		TotalSize:   vk.DeviceSize(size),
		Usage:       usage,
		MemoryFlags: memoryFlags,
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        buffer.TotalSize,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateBuffer failed with %s", VulkanResultString(res))
	}
	buffer.Handle = handle

	requirements := vk.MemoryRequirements{}
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex < 0 {
		buffer.Destroy(context)
		return nil, fmt.Errorf("no suitable memory type for buffer (type bits 0x%x)", requirements.MemoryTypeBits)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		buffer.Destroy(context)
		return nil, fmt.Errorf("vkAllocateMemory failed with %s", VulkanResultString(res))
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		return nil, fmt.Errorf("vkBindBufferMemory failed with %s", VulkanResultString(res))
	}

	return buffer, nil
}

func (buffer *VulkanBuffer) Destroy(context *VulkanContext) {
	if buffer.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, buffer.Memory, context.Allocator)
		buffer.Memory = vk.NullDeviceMemory
	}
	if buffer.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, buffer.Handle, context.Allocator)
		buffer.Handle = vk.NullBuffer
	}
	buffer.TotalSize = 0
}

// LoadData maps the buffer's memory and copies data into it. The buffer must
// have been created host visible.
func (buffer *VulkanBuffer) LoadData(context *VulkanContext, offset, size uint64, data []byte) error {
	var pData unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &pData); res != vk.Success {
		return fmt.Errorf("vkMapMemory failed with %s", VulkanResultString(res))
	}
	vk.Memcopy(pData, data[:size])
	vk.UnmapMemory(context.Device.LogicalDevice, buffer.Memory)
	return nil
}

// CopyTo records and submits a single-use transfer from this buffer into dest.
func (buffer *VulkanBuffer) CopyTo(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, dest *VulkanBuffer, size uint64) error {
	cb, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}

	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(cb.Handle, buffer.Handle, dest.Handle, 1, []vk.BufferCopy{copyRegion})

	return cb.EndSingleUse(context, pool, queue)
}

// uploadDeviceLocal creates a device local buffer and fills it through a
// host visible staging buffer.
func uploadDeviceLocal(context *VulkanContext, usage vk.BufferUsageFlags, data []byte) (*VulkanBuffer, error) {
	size := uint64(len(data))

	staging, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, size, data); err != nil {
		return nil, err
	}

	buffer, err := BufferCreate(context, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	if err := staging.CopyTo(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue, buffer, size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}
