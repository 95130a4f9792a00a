package backend

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/weiihann/streamoor/stream"
)

// hostDevices enumerates the single host CPU device the CPU backends run on.
type hostDevices struct {
	backend string
}

func (h hostDevices) Devices() []stream.Device {
	return []stream.Device{{
		Index:  0,
		Name:   hostName(),
		Driver: hostDriver(h.backend),
	}}
}

func (h hostDevices) DeviceName(index int) (string, error) {
	if err := checkDevice("DeviceName", index); err != nil {
		return "", err
	}

	return hostName(), nil
}

func (h hostDevices) DeviceDriver(index int) (string, error) {
	if err := checkDevice("DeviceDriver", index); err != nil {
		return "", err
	}

	return hostDriver(h.backend), nil
}

func checkDevice(op string, index int) error {
	if index != 0 {
		return stream.NewConfigurationError(op,
			fmt.Sprintf("invalid device %d: only device 0 (host CPU) exists", index))
	}

	return nil
}

func hostName() string {
	model := cpuModel()
	if model == "" {
		model = runtime.GOARCH + " CPU"
	}

	name := fmt.Sprintf("%s, %d threads", model, runtime.NumCPU())
	if features := cpuFeatures(); len(features) > 0 {
		name += " [" + strings.Join(features, " ") + "]"
	}

	return name
}

func hostDriver(backend string) string {
	return fmt.Sprintf("Go runtime %s %s/%s (%s)",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, backend)
}

// cpuFeatures lists the vector extensions relevant to streaming kernels.
func cpuFeatures() []string {
	var features []string

	has := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}

	has(cpu.X86.HasSSE41, "SSE4.1")
	has(cpu.X86.HasAVX, "AVX")
	has(cpu.X86.HasAVX2, "AVX2")
	has(cpu.X86.HasFMA, "FMA")
	has(cpu.X86.HasAVX512F, "AVX512F")
	has(cpu.ARM64.HasASIMD, "NEON")
	has(cpu.ARM64.HasSVE, "SVE")

	return features
}
