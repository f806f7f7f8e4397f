package tensor

// Device is a logical placement tag for a tensor. All computation in
// this package executes on the host; the tag records where a tensor
// (and anything derived from it) is meant to live, so that binary ops
// can reject accidental cross-device mixes the same way an accelerator
// runtime would.
type Device string

const (
	CPU         Device = "cpu"
	Accelerator Device = "accel"
)

func (d Device) String() string {
	return string(d)
}

// Device reports the tensor's placement.
func (t *Tensor) Device() Device {
	return t.device
}

// To returns a copy of the tensor placed on the given device. The
// receiver is unchanged.
func (t *Tensor) To(d Device) *Tensor {
	out := t.Clone()
	out.device = d
	return out
}

func sameDevice(a, b *Tensor) bool {
	return a.device == b.device
}
