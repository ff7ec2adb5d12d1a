package statusbar

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// MemorySampler returns used memory as a percentage of total.
type MemorySampler func() (float64, error)

// VirtualMemoryPercent reads system memory usage.
func VirtualMemoryPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to read memory usage: %w", err)
	}
	return vm.UsedPercent, nil
}
