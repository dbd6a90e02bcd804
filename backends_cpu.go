//go:build !accelrt_nocpu

package accelrt

import (
	"github.com/accelrt/accelrt/base"
	"github.com/accelrt/accelrt/cpu"
)

func init() {
	base.Register(base.DeviceTypeCPU, &base.Backend{
		Name: "cpu",
		NewDevice: func(nativeContext, nativeDevice uintptr, deviceIndex uint32) (base.Device, error) {
			if deviceIndex >= 1 {
				return nil, base.Errorf(base.InvalidArgument, "cpu: device index %d out of range", deviceIndex)
			}
			dev, err := cpu.NewDevice()
			if err != nil {
				return nil, err
			}
			return dev, nil
		},
		NewContext: func(nativeContext uintptr) (base.Context, error) {
			ctx, err := cpu.NewContext()
			if err != nil {
				return nil, err
			}
			return ctx, nil
		},
		DeviceCount: cpu.DeviceCount,
		DeviceInfo:  cpu.DeviceInfo,
	})
}
