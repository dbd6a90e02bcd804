// accelinfo lists the compute devices the accelrt runtime can use on
// this machine, with their backend, vendor and device identifiers.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/accelrt/accelrt"
	"github.com/accelrt/accelrt/base"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "accelinfo",
		Short: "list compute devices visible to the accelrt runtime",
		RunE:  listDevices,
	}
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also probe native handles")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func listDevices(cmd *cobra.Command, args []string) error {
	// Enumeration failures (a backend without hardware) are expected
	// here; collect them instead of terminating.
	var lastErr string
	accelrt.SetErrorFunc(func(code accelrt.ErrorCode, message string) {
		lastErr = fmt.Sprintf("%s: %s", code, message)
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "BACKEND\tINDEX\tVENDOR\tDEVICE\tNAME")

	for _, deviceType := range []accelrt.DeviceType{accelrt.DeviceTypeCPU, accelrt.DeviceTypeGPU} {
		if !base.Registered(deviceType) {
			continue
		}
		count := accelrt.GetDeviceCount(deviceType)
		if count == 0 {
			if lastErr != "" {
				fmt.Fprintf(w, "%s\t-\t-\t-\t(unavailable: %s)\n", deviceType, lastErr)
				lastErr = ""
			} else {
				fmt.Fprintf(w, "%s\t-\t-\t-\t(no devices)\n", deviceType)
			}
			continue
		}
		for i := uint32(0); i < count; i++ {
			info, ok := accelrt.GetDeviceInfo(deviceType, i)
			if !ok {
				fmt.Fprintf(w, "%s\t%d\t-\t-\t(query failed: %s)\n", deviceType, i, lastErr)
				lastErr = ""
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t0x%04x\t0x%04x\t%s\n",
				deviceType, i, info.VendorID, info.DeviceID, info.Name)
			if verbose {
				probeHandles(w, deviceType, i)
			}
		}
	}
	return nil
}

func probeHandles(w *tabwriter.Writer, deviceType accelrt.DeviceType, index uint32) {
	dev := accelrt.GetDevice(deviceType, index)
	if dev.IsNil() {
		return
	}
	defer accelrt.Release(dev)
	fmt.Fprintf(w, "\tplatform=%#x device=%#x context=%#x\n",
		accelrt.PlatformNativeHandle(dev),
		accelrt.DeviceNativeHandle(dev),
		accelrt.DeviceContextNativeHandle(dev))
}
