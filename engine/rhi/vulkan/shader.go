package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/rhi"
)

type VulkanShaderModule struct {
	Handle vk.ShaderModule
	Stage  vk.ShaderStageFlagBits
}

func convShaderStage(stage rhi.ShaderStage) (vk.ShaderStageFlagBits, error) {
	switch stage {
	case rhi.ShaderStageVertex:
		return vk.ShaderStageVertexBit, nil
	case rhi.ShaderStagePixel:
		return vk.ShaderStageFragmentBit, nil
	}
	return 0, fmt.Errorf("unmapped shader stage %d", stage)
}

// sliceUint32 reinterprets SPIR-V bytes as the uint32 word stream
// vkCreateShaderModule expects. The caller guarantees 4-byte alignment.
func sliceUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func ShaderModuleCreate(context *VulkanContext, stage rhi.ShaderStage, bytecode []byte) (*VulkanShaderModule, error) {
	if len(bytecode) == 0 || len(bytecode)%4 != 0 {
		return nil, fmt.Errorf("shader bytecode length %d is not a SPIR-V word stream", len(bytecode))
	}
	vkStage, err := convShaderStage(stage)
	if err != nil {
		return nil, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(bytecode)),
		PCode:    sliceUint32(bytecode),
	}

	var handle vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateShaderModule failed with %s", VulkanResultString(res))
	}

	return &VulkanShaderModule{
		Handle: handle,
		Stage:  vkStage,
	}, nil
}

func (sm *VulkanShaderModule) Destroy(context *VulkanContext) {
	if sm.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, sm.Handle, context.Allocator)
		sm.Handle = vk.NullShaderModule
	}
}
