//go:build !accelrt_nogpu

package accelrt

import (
	"github.com/accelrt/accelrt/base"
	"github.com/accelrt/accelrt/gpu"
)

func init() {
	base.Register(base.DeviceTypeGPU, &base.Backend{
		Name: "gpu",
		NewDevice: func(nativeContext, nativeDevice uintptr, deviceIndex uint32) (base.Device, error) {
			// WebGPU owns its adapter/device lifecycle; foreign native
			// handles cannot be adopted and are ignored.
			dev, err := gpu.NewDevice(deviceIndex)
			if err != nil {
				return nil, err
			}
			return dev, nil
		},
		NewContext: func(nativeContext uintptr) (base.Context, error) {
			ctx, err := gpu.NewContext()
			if err != nil {
				return nil, err
			}
			return ctx, nil
		},
		DeviceCount: gpu.DeviceCount,
		DeviceInfo:  gpu.DeviceInfo,
	})
}
