package vulkan

import "sync"

type LockGroup string

const (
	SamplerManagement       LockGroup = "sampler_management"
	ResourceManagement      LockGroup = "resource_management"
	CommandBufferManagement LockGroup = "command_buffer_management"
	RenderpassManagement    LockGroup = "renderpass_management"
	BufferManagement        LockGroup = "buffer_management"
	ImageManagement         LockGroup = "image_management"
	DeviceManagement        LockGroup = "device_management"
	QueueManagement         LockGroup = "queue_management"
	PipelineManagement      LockGroup = "pipeline_management"
	ShaderManagement        LockGroup = "shader_management"
	InstanceManagement      LockGroup = "instance_management"
)

// VulkanLockPool is this backend's multithread-protection facility: one
// mutex per management group around native calls. It is engaged only when
// the renderer configuration opts in; otherwise SafeCall runs the function
// directly, keeping the single render-thread fast path lock-free.
type VulkanLockPool struct {
	enabled bool
	locks   map[LockGroup]*sync.Mutex
	mu      sync.Mutex // Protects access to the locks map
}

func NewVulkanLockPool(enabled bool) *VulkanLockPool {
	return &VulkanLockPool{
		enabled: enabled,
		locks:   make(map[LockGroup]*sync.Mutex),
	}
}

// Get or create a mutex for a specific group
func (vs *VulkanLockPool) setLock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, exists := vs.locks[group]; !exists {
		vs.locks[group] = &sync.Mutex{}
	}
	vs.locks[group].Lock()

	return vs.locks[group]
}

func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	if !vs.enabled {
		return fn()
	}
	l := vs.setLock(group)
	defer l.Unlock()

	return fn()
}
