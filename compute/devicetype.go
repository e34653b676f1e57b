package compute

// DeviceType classifies a compute device.
type DeviceType int

//go:generate go tool enumer -type=DeviceType -trimprefix=DeviceType -transform=upper devicetype.go

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeCPU
	DeviceTypeGPU
	DeviceTypeAccelerator

	// DeviceTypeAll is not the type of any device: when used for selection it matches devices of any type.
	DeviceTypeAll
)
