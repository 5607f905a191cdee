package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/rhi"
)

type VulkanImage struct {
	Handle    vk.Image
	Memory    vk.DeviceMemory
	View      vk.ImageView
	Width     uint32
	Height    uint32
	MipLevels uint32
	Format    vk.Format
}

func ImageCreate(context *VulkanContext, width, height, mipLevels uint32, format vk.Format,
	tiling vk.ImageTiling, usage vk.ImageUsageFlags, memoryFlags vk.MemoryPropertyFlags,
	aspect vk.ImageAspectFlags) (*VulkanImage, error) {

	image := &VulkanImage{
		Width:     width,
		Height:    height,
		MipLevels: mipLevels,
		Format:    format,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateImage failed with %s", VulkanResultString(res))
	}
	image.Handle = handle

	requirements := vk.MemoryRequirements{}
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &requirements)
	requirements.Deref()

	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex < 0 {
		image.Destroy(context)
		return nil, fmt.Errorf("no suitable memory type for image (type bits 0x%x)", requirements.MemoryTypeBits)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("vkAllocateMemory failed with %s", VulkanResultString(res))
	}
	image.Memory = memory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("vkBindImageMemory failed with %s", VulkanResultString(res))
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("vkCreateImageView failed with %s", VulkanResultString(res))
	}
	image.View = view

	return image, nil
}

func (image *VulkanImage) Destroy(context *VulkanContext) {
	if image.View != vk.NullImageView {
		vk.DestroyImageView(context.Device.LogicalDevice, image.View, context.Allocator)
		image.View = vk.NullImageView
	}
	if image.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, image.Memory, context.Allocator)
		image.Memory = vk.NullDeviceMemory
	}
	if image.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
		image.Handle = vk.NullImage
	}
}

// TransitionLayout records a layout transition barrier into cb covering all
// mip levels of the image.
func (image *VulkanImage) TransitionLayout(cb *VulkanCommandBuffer, oldLayout, newLayout vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     image.MipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var sourceStage, destStage vk.PipelineStageFlags

	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		destStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		return fmt.Errorf("unsupported layout transition %d -> %d", oldLayout, newLayout)
	}

	vk.CmdPipelineBarrier(cb.Handle, sourceStage, destStage, 0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// CopyFromBuffer records a full-extent copy of the given mip level from a
// staging buffer into the image.
func (image *VulkanImage) CopyFromBuffer(cb *VulkanCommandBuffer, buffer *VulkanBuffer, mipLevel, width, height uint32, bufferOffset uint64) {
	region := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(bufferOffset),
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       mipLevel,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cb.Handle, buffer.Handle, image.Handle,
		vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// SamplerCreate builds a vk.Sampler from an engine sampler description,
// clamping anisotropy to what the adapter advertises.
func SamplerCreate(context *VulkanContext, desc rhi.SamplerDescription) (vk.Sampler, error) {
	minFilter, err := convFilter(desc.MinFilter)
	if err != nil {
		return vk.NullSampler, err
	}
	magFilter, err := convFilter(desc.MagFilter)
	if err != nil {
		return vk.NullSampler, err
	}
	addressU, err := convAddressMode(desc.AddressU)
	if err != nil {
		return vk.NullSampler, err
	}
	addressV, err := convAddressMode(desc.AddressV)
	if err != nil {
		return vk.NullSampler, err
	}
	addressW, err := convAddressMode(desc.AddressW)
	if err != nil {
		return vk.NullSampler, err
	}
	compareOp, err := convCompareOp(desc.CompareOp)
	if err != nil {
		return vk.NullSampler, err
	}

	context.Device.Properties.Limits.Deref()
	maxAnisotropy := desc.MaxAnisotropy
	if maxAnisotropy > context.Device.Properties.Limits.MaxSamplerAnisotropy {
		maxAnisotropy = context.Device.Properties.Limits.MaxSamplerAnisotropy
	}

	samplerCreateInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MinFilter:    minFilter,
		MagFilter:    magFilter,
		AddressModeU: addressU,
		AddressModeV: addressV,
		AddressModeW: addressW,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		MaxLod:       vk.LodClampNone,
		CompareOp:    compareOp,
	}
	if maxAnisotropy > 1 {
		samplerCreateInfo.AnisotropyEnable = vk.True
		samplerCreateInfo.MaxAnisotropy = maxAnisotropy
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerCreateInfo, context.Allocator, &sampler); res != vk.Success {
		return vk.NullSampler, fmt.Errorf("vkCreateSampler failed with %s", VulkanResultString(res))
	}
	return sampler, nil
}
