// Package deviceinfo implements the device-info provider (spec §4.J): a
// read-only snapshot of the host exposed as a single tool, device.getInfo.
// System, processor, memory, and network facts are queried from the host at
// Collect time; I/O ports, sensors, and storage devices are embedded-board
// specifics with no generic host equivalent, so the platform layer supplies
// them explicitly before Collect runs.
package deviceinfo

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	netutil "github.com/shirou/gopsutil/v4/net"
)

// SystemInfo describes the host operating system.
type SystemInfo struct {
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernelVersion"`
	Hostname      string `json:"hostname"`
	UptimeSeconds uint64 `json:"uptimeSeconds"`
}

// ProcessorInfo describes the host CPU.
type ProcessorInfo struct {
	Model    string  `json:"model"`
	Cores    int     `json:"cores"`
	ClockMHz float64 `json:"clockMhz"`
}

// MemoryInfo describes host memory usage at snapshot time.
type MemoryInfo struct {
	TotalBytes     uint64 `json:"totalBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
	UsedBytes      uint64 `json:"usedBytes"`
}

// IOPort is a board-specific GPIO/peripheral port. Supplied by the platform
// layer; deviceinfo has no generic way to enumerate these on a host OS.
type IOPort struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	State     string `json:"state"`
}

// NetworkInterface describes one host network adapter.
type NetworkInterface struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
	IsUp      bool     `json:"isUp"`
}

// Sensor is a board-specific reading (temperature, voltage, etc). Supplied
// by the platform layer.
type Sensor struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// StorageDevice describes one mounted storage volume.
type StorageDevice struct {
	Name       string `json:"name"`
	TotalBytes uint64 `json:"totalBytes"`
	FreeBytes  uint64 `json:"freeBytes"`
}

// Snapshot is the full device-info payload (spec §3 DeviceInfoSnapshot).
type Snapshot struct {
	System            SystemInfo         `json:"system"`
	Processor         ProcessorInfo      `json:"processor"`
	Memory            MemoryInfo         `json:"memory"`
	IOPorts           []IOPort           `json:"ioPorts"`
	NetworkInterfaces []NetworkInterface `json:"networkInterfaces"`
	Sensors           []Sensor           `json:"sensors"`
	StorageDevices    []StorageDevice    `json:"storageDevices"`
	Capabilities      []string           `json:"capabilities"`
}

// Provider holds a device-info Snapshot captured at init.
type Provider struct {
	snapshot Snapshot
}

// New constructs a Provider with an empty snapshot; call Collect to
// populate it.
func New() *Provider {
	return &Provider{}
}

// WithBoardDetails attaches platform-supplied facts deviceinfo cannot
// derive from a generic host query: I/O ports, sensors, storage devices,
// and the capability list.
func (p *Provider) WithBoardDetails(ioPorts []IOPort, sensors []Sensor, storage []StorageDevice, capabilities []string) {
	p.snapshot.IOPorts = ioPorts
	p.snapshot.Sensors = sensors
	p.snapshot.StorageDevices = storage
	p.snapshot.Capabilities = capabilities
}

// Collect populates the system, processor, memory, and network sections of
// the snapshot from the running host, and refreshes the free/total byte
// counts of any storage devices WithBoardDetails already registered (call
// WithBoardDetails before Collect). A failure in any one section is
// locally recovered (spec §7): that section is left at its zero value and
// collection proceeds, since a partial snapshot is still useful to a
// caller.
func (p *Provider) Collect(ctx context.Context) error {
	p.collectSystem(ctx)
	p.collectProcessor(ctx)
	p.collectMemory(ctx)
	p.collectNetwork(ctx)
	p.collectStorageUsage(ctx)
	return nil
}

func (p *Provider) collectSystem(ctx context.Context) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return
	}
	p.snapshot.System = SystemInfo{
		OS:            info.OS,
		Platform:      info.Platform,
		KernelVersion: info.KernelVersion,
		Hostname:      info.Hostname,
		UptimeSeconds: info.Uptime,
	}
}

func (p *Provider) collectProcessor(ctx context.Context) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		return
	}
	counts, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		counts = len(infos)
	}
	p.snapshot.Processor = ProcessorInfo{
		Model:    infos[0].ModelName,
		Cores:    counts,
		ClockMHz: infos[0].Mhz,
	}
}

func (p *Provider) collectMemory(ctx context.Context) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return
	}
	p.snapshot.Memory = MemoryInfo{
		TotalBytes:     v.Total,
		AvailableBytes: v.Available,
		UsedBytes:      v.Used,
	}
}

func (p *Provider) collectNetwork(ctx context.Context) {
	ifaces, err := netutil.InterfacesWithContext(ctx)
	if err != nil {
		return
	}
	out := make([]NetworkInterface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs := make([]string, 0, len(iface.Addrs))
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Addr)
		}
		isUp := false
		for _, f := range iface.Flags {
			if f == "up" {
				isUp = true
			}
		}
		out = append(out, NetworkInterface{Name: iface.Name, Addresses: addrs, IsUp: isUp})
	}
	p.snapshot.NetworkInterfaces = out
}

// collectStorageUsage refreshes the free/total byte counts of
// already-registered storage devices from the live host mount, if the
// device's Name resolves to a mount path. Devices the platform layer
// registered that aren't host mount points (raw flash, eMMC partitions
// without a mounted filesystem) are left as the platform supplied them.
func (p *Provider) collectStorageUsage(ctx context.Context) {
	for i, dev := range p.snapshot.StorageDevices {
		usage, err := disk.UsageWithContext(ctx, dev.Name)
		if err != nil {
			continue
		}
		p.snapshot.StorageDevices[i].TotalBytes = usage.Total
		p.snapshot.StorageDevices[i].FreeBytes = usage.Free
	}
}

// Snapshot returns the current snapshot.
func (p *Provider) Snapshot() Snapshot {
	return p.snapshot
}
