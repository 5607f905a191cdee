package rhi

import (
	"github.com/spaghettifunk/titan/engine/core"
)

// resourceObject is the shared plumbing of every RHI resource: a process
// unique ID, the opaque native handle the backend allocated, and a
// release-exactly-once guard. Resources hold a reference to the device that
// made them; the device must outlive them.
type resourceObject struct {
	id       string
	device   *Device
	native   interface{}
	released bool
}

func newResourceObject(device *Device, native interface{}) resourceObject {
	return resourceObject{
		id:     core.IdentifierNew(),
		device: device,
		native: native,
	}
}

func (o *resourceObject) ID() string { return o.id }

// Resource exposes the opaque native handle for binding.
func (o *resourceObject) Resource() interface{} { return o.native }

// Release frees the native resource exactly once. Further calls are no-ops.
func (o *resourceObject) Release() error {
	if o.released || o.native == nil {
		return nil
	}
	o.released = true
	err := o.device.backend.DestroyResource(o.native)
	o.native = nil
	return err
}
