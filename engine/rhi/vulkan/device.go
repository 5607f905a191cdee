package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex int32
	GraphicsQueue      vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties
}

// apiVersionForLevel maps a capability level to the Vulkan API version it
// stands for in this backend.
func apiVersionForLevel(level config.CapabilityLevel) uint32 {
	switch level {
	case config.CapabilityLevel13:
		return uint32(vk.MakeVersion(1, 3, 0))
	case config.CapabilityLevel12:
		return uint32(vk.MakeVersion(1, 2, 0))
	case config.CapabilityLevel11:
		return uint32(vk.MakeVersion(1, 1, 0))
	default:
		return uint32(vk.MakeVersion(1, 0, 0))
	}
}

// negotiateLevel returns the first level in the preference list that the
// adapter's reported API version can satisfy.
func negotiateLevel(preferred []config.CapabilityLevel, apiVersion uint32) (config.CapabilityLevel, error) {
	for _, level := range preferred {
		if apiVersion >= apiVersionForLevel(level) {
			return level, nil
		}
	}
	return "", fmt.Errorf("adapter API version %d.%d satisfies no preferred capability level",
		vk.Version(apiVersion).Major(), vk.Version(apiVersion).Minor())
}

func DeviceCreate(context *VulkanContext, lockPool *VulkanLockPool) error {
	if err := selectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}
	context.Device.Features.Deref()
	if context.Device.Features.SamplerAnisotropy == vk.True {
		deviceFeatures.SamplerAnisotropy = vk.True
	}
	if context.Device.Features.WideLines == vk.True {
		deviceFeatures.WideLines = vk.True
	}
	if context.Device.Features.FillModeNonSolid == vk.True {
		deviceFeatures.FillModeNonSolid = vk.True
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueCreateInfo},
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{deviceFeatures},
	}

	if err := lockPool.SafeCall(DeviceManagement, func() error {
		if res := vk.CreateDevice(
			context.Device.PhysicalDevice,
			&deviceCreateInfo,
			context.Allocator,
			&context.Device.LogicalDevice); res != vk.Success {
			return fmt.Errorf("vkCreateDevice failed with %s", VulkanResultString(res))
		}
		return nil
	}); err != nil {
		return err
	}

	core.LogInfo("Logical device created.")

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.GraphicsQueueIndex),
		0,
		&context.Device.GraphicsQueue)

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := lockPool.SafeCall(DeviceManagement, func() error {
		if res := vk.CreateCommandPool(
			context.Device.LogicalDevice,
			&poolCreateInfo,
			context.Allocator,
			&context.Device.GraphicsCommandPool); res != vk.Success {
			return fmt.Errorf("vkCreateCommandPool failed with %s", VulkanResultString(res))
		}
		return nil
	}); err != nil {
		return err
	}
	core.LogInfo("Graphics command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	context.Device.GraphicsQueue = nil

	core.LogInfo("Destroying command pools...")
	vk.DestroyCommandPool(
		context.Device.LogicalDevice,
		context.Device.GraphicsCommandPool,
		context.Allocator)

	core.LogInfo("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.GraphicsQueueIndex = -1
}

// selectPhysicalDevice picks the primary adapter: the first discrete GPU
// with a graphics queue, falling back to any device with a graphics queue.
func selectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32 = 0
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return fmt.Errorf("vkEnumeratePhysicalDevices failed with %s", VulkanResultString(res))
	}
	if physicalDeviceCount == 0 {
		return core.ErrNoAdapter
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("vkEnumeratePhysicalDevices failed with %s", VulkanResultString(res))
	}

	type candidate struct {
		device     vk.PhysicalDevice
		properties vk.PhysicalDeviceProperties
		features   vk.PhysicalDeviceFeatures
		memory     vk.PhysicalDeviceMemoryProperties
		queueIndex int32
		discrete   bool
	}
	var fallback *candidate

	for i := 0; i < int(physicalDeviceCount); i++ {
		properties := vk.PhysicalDeviceProperties{}
		vk.GetPhysicalDeviceProperties(physicalDevices[i], &properties)
		properties.Deref()

		features := vk.PhysicalDeviceFeatures{}
		vk.GetPhysicalDeviceFeatures(physicalDevices[i], &features)

		memory := vk.PhysicalDeviceMemoryProperties{}
		vk.GetPhysicalDeviceMemoryProperties(physicalDevices[i], &memory)

		queueIndex := graphicsQueueIndex(physicalDevices[i])
		if queueIndex < 0 {
			continue
		}

		c := &candidate{
			device:     physicalDevices[i],
			properties: properties,
			features:   features,
			memory:     memory,
			queueIndex: queueIndex,
			discrete:   properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
		}
		if c.discrete {
			fallback = c
			break
		}
		if fallback == nil {
			fallback = c
		}
	}

	if fallback == nil {
		core.LogError("No physical devices were found which meet the requirements.")
		return core.ErrNoAdapter
	}

	core.LogInfo("Selected device: '%s'.", string(fallback.properties.DeviceName[:]))
	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version(fallback.properties.DriverVersion).Major(),
		vk.Version(fallback.properties.DriverVersion).Minor(),
		vk.Version(fallback.properties.DriverVersion).Patch(),
	)
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(fallback.properties.ApiVersion).Major(),
		vk.Version(fallback.properties.ApiVersion).Minor(),
		vk.Version(fallback.properties.ApiVersion).Patch(),
	)

	context.Device.PhysicalDevice = fallback.device
	context.Device.GraphicsQueueIndex = fallback.queueIndex
	context.Device.Properties = fallback.properties
	context.Device.Features = fallback.features
	context.Device.Memory = fallback.memory

	core.LogInfo("Physical device selected.")
	return nil
}

func graphicsQueueIndex(device vk.PhysicalDevice) int32 {
	var queueFamilyCount uint32 = 0
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i := 0; i < int(queueFamilyCount); i++ {
		queueFamilies[i].Deref()
		if vk.QueueFlagBits(queueFamilies[i].QueueFlags)&vk.QueueGraphicsBit > 0 {
			return int32(i)
		}
	}
	return -1
}
