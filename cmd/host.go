package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// HostInfo describes the machine doing the rendering
type HostInfo struct {
	CPUModel     string
	LogicalCores int
	TotalRAMGB   float64
}

// hostInfo queries the CPU and memory of the host. Fields that cannot be read keep runtime fallbacks.
func hostInfo() HostInfo {
	info := HostInfo{
		CPUModel:     "unknown",
		LogicalCores: runtime.NumCPU(),
	}

	cpuInfo, err := cpu.Info()
	if err != nil {
		logger.Debugf("cpu info: %v", err)
	} else if len(cpuInfo) > 0 && cpuInfo[0].ModelName != "" {
		info.CPUModel = cpuInfo[0].ModelName
	}

	if cores, err := cpu.Counts(true); err == nil && cores > 0 {
		info.LogicalCores = cores
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		info.TotalRAMGB = float64(memInfo.Total) / (1024 * 1024 * 1024)
	} else {
		logger.Debugf("memory info: %v", err)
	}

	return info
}

// defaultWorkers is the worker count used when --workers is not given
func defaultWorkers() int {
	return hostInfo().LogicalCores
}

func displayHostInfo(info HostInfo) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"CPU", "Logical cores", "RAM"})
	table.Append([]string{
		info.CPUModel,
		fmt.Sprintf("%d", info.LogicalCores),
		fmt.Sprintf("%.1f GB", info.TotalRAMGB),
	})

	table.Render()
	logger.Noticef("host\n%s", buf.String())
}
