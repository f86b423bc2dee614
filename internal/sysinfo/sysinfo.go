//go:build linux

// Package sysinfo gathers mostly-static host metadata written once per
// target into its log file's YAML header.
package sysinfo

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/radvisor/radvisor/pkg/types"
)

// Info is mostly-static metadata about a system and its hardware
// configuration, serialized PascalCase into the YAML header.
type Info struct {
	OsType         string        `yaml:"OsType"`
	OsRelease      string        `yaml:"OsRelease"`
	Distribution   *Distribution `yaml:"Distribution,omitempty"`
	MemoryTotal    types.Bytes   `yaml:"MemoryTotal"`
	SwapTotal      types.Bytes   `yaml:"SwapTotal"`
	Hostname       string        `yaml:"Hostname"`
	CpuCount       int           `yaml:"CpuCount"`
	CpuOnlineCount int           `yaml:"CpuOnlineCount"`
	CpuSpeed       uint64        `yaml:"CpuSpeed"`
}

// Distribution is Linux distribution metadata compliant with os-release(5).
type Distribution struct {
	ID              string `yaml:"Id,omitempty"`
	IDLike          string `yaml:"IdLike,omitempty"`
	Name            string `yaml:"Name,omitempty"`
	PrettyName      string `yaml:"PrettyName,omitempty"`
	Version         string `yaml:"Version,omitempty"`
	VersionID       string `yaml:"VersionId,omitempty"`
	VersionCodename string `yaml:"VersionCodename,omitempty"`
	CpeName         string `yaml:"CpeName,omitempty"`
	BuildID         string `yaml:"BuildId,omitempty"`
	Variant         string `yaml:"Variant,omitempty"`
	VariantID       string `yaml:"VariantId,omitempty"`
}

// Get collects fresh values for every field. Each sub-probe fails silently
// (leaving its field at the zero value, except CpuOnlineCount, which falls
// back to runtime.NumCPU()) rather than aborting the whole collection, since
// a missing hostname shouldn't prevent a collector from starting.
func Get() Info {
	total, swap := memInfo()
	return Info{
		OsType:         runtime.GOOS,
		OsRelease:      kernelRelease(),
		Distribution:   readDistribution(),
		MemoryTotal:    types.Bytes(total),
		SwapTotal:      types.Bytes(swap),
		Hostname:       hostname(),
		CpuCount:       runtime.NumCPU(),
		CpuOnlineCount: onlineCPUCount(),
		CpuSpeed:       cpuSpeedMHz(),
	}
}

func hostname() string {
	name, _ := os.Hostname()
	return name
}

func kernelRelease() string {
	data, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func memInfo() (totalBytes, swapBytes uint64) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalBytes = kb * 1024
		case "SwapTotal:":
			swapBytes = kb * 1024
		}
	}
	return totalBytes, swapBytes
}

func cpuSpeedMHz() uint64 {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	var total float64
	var count int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "cpu MHz") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		mhz, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		total += mhz
		count++
	}
	if count == 0 {
		return 0
	}
	return uint64(total / float64(count))
}

func onlineCPUCount() int {
	data, err := os.ReadFile("/sys/devices/system/cpu/online")
	if err != nil {
		return runtime.NumCPU()
	}
	count := 0
	for _, rangeStr := range strings.Split(strings.TrimSpace(string(data)), ",") {
		bounds := strings.SplitN(rangeStr, "-", 2)
		lo, err := strconv.Atoi(bounds[0])
		if err != nil {
			continue
		}
		hi := lo
		if len(bounds) == 2 {
			if v, err := strconv.Atoi(bounds[1]); err == nil {
				hi = v
			}
		}
		count += hi - lo + 1
	}
	if count == 0 {
		return runtime.NumCPU()
	}
	return count
}

func readDistribution() *Distribution {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return nil
	}
	defer f.Close()

	values := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := line[:eq]
		value := strings.Trim(line[eq+1:], `"`)
		values[key] = value
	}

	return &Distribution{
		ID:              values["ID"],
		IDLike:          values["ID_LIKE"],
		Name:            values["NAME"],
		PrettyName:      values["PRETTY_NAME"],
		Version:         values["VERSION"],
		VersionID:       values["VERSION_ID"],
		VersionCodename: values["VERSION_CODENAME"],
		CpeName:         values["CPE_NAME"],
		BuildID:         values["BUILD_ID"],
		Variant:         values["VARIANT"],
		VariantID:       values["VARIANT_ID"],
	}
}
