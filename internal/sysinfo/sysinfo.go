// Package sysinfo reads the Pi-level metrics shown on the health and
// info screens: CPU temperature, RAM, disk, IPs, WiFi SSID and uptime.
package sysinfo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const (
	ssidCacheFor  = 30 * time.Second
	extIPEvery    = 10 * time.Minute
	extIPEndpoint = "https://api.ipify.org"
	unknownIP     = "?.?.?.?"
)

// Provider serves system metrics with light caching so screen renders
// stay cheap. The external IP is the only metric fetched over the
// network; it refreshes on its own goroutine and never blocks a caller.
type Provider struct {
	log zerolog.Logger

	mu       sync.Mutex
	extIP    string
	ssid     string
	ssidAt   time.Time
	deviceID string
}

// New builds a provider. The device ID is derived once from the Pi
// serial in /proc/cpuinfo.
func New(log zerolog.Logger) *Provider {
	p := &Provider{log: log, extIP: "...", ssid: "..."}
	p.deviceID = "raspi-" + serialNumber()
	return p
}

// Start launches the external IP refresher. It fetches once up front and
// then every ten minutes until ctx is cancelled.
func (p *Provider) Start(ctx context.Context) {
	go func() {
		for {
			ip := fetchExternalIP(ctx)
			p.mu.Lock()
			p.extIP = ip
			p.mu.Unlock()

			select {
			case <-ctx.Done():
				return
			case <-time.After(extIPEvery):
			}
		}
	}()
}

// DeviceID returns the stable identifier used as the MQTT client ID.
func (p *Provider) DeviceID() string {
	return p.deviceID
}

// ExternalIP returns the cached WAN address.
func (p *Provider) ExternalIP() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extIP
}

// CPUTemp reads the SoC temperature from sysfs in Celsius.
func (p *Provider) CPUTemp() float64 {
	b, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0
	}
	return float64(milli) / 1000.0
}

// RAMInfo returns used and total memory in MB.
func (p *Provider) RAMInfo() (used, total int) {
	b, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, 1
	}
	return parseMemInfo(string(b))
}

// parseMemInfo computes used/total MB from /proc/meminfo content.
func parseMemInfo(content string) (used, total int) {
	mem := make(map[string]int)
	for _, line := range strings.Split(content, "\n") {
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			v, err := strconv.Atoi(parts[1])
			if err == nil {
				mem[strings.TrimSuffix(parts[0], ":")] = v
			}
		}
	}
	totalKB := mem["MemTotal"]
	if totalKB == 0 {
		return 0, 1
	}
	usedKB := totalKB - mem["MemAvailable"]
	return usedKB / 1024, totalKB / 1024
}

// DiskPercent returns the root filesystem usage percentage.
func (p *Provider) DiskPercent() int {
	var st syscall.Statfs_t
	if err := syscall.Statfs("/", &st); err != nil {
		return 0
	}
	total := st.Blocks * uint64(st.Bsize)
	if total == 0 {
		return 0
	}
	free := st.Bfree * uint64(st.Bsize)
	return int(100 * (total - free) / total)
}

// LocalIP returns the LAN address via the UDP dial trick.
func (p *Provider) LocalIP() string {
	conn, err := net.DialTimeout("udp", "8.8.8.8:80", time.Second)
	if err != nil {
		return unknownIP
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return unknownIP
	}
	return addr.IP.String()
}

// SSHListening reports whether something answers on local port 22.
func (p *Provider) SSHListening() bool {
	conn, err := net.DialTimeout("tcp", "127.0.0.1:22", 300*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// SSID returns the active WiFi network name via nmcli, cached for 30s.
func (p *Provider) SSID(now time.Time) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if now.Sub(p.ssidAt) < ssidCacheFor && p.ssid != "..." {
		return p.ssid
	}
	p.ssid = activeSSID()
	p.ssidAt = now
	return p.ssid
}

func activeSSID() string {
	out, err := exec.Command("nmcli", "-t", "-f", "active,ssid", "dev", "wifi").Output()
	if err != nil {
		return "N/A"
	}
	return parseNmcliSSID(string(out))
}

func parseNmcliSSID(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if after, ok := strings.CutPrefix(line, "yes:"); ok {
			return strings.TrimSpace(after)
		}
	}
	return "N/A"
}

func fetchExternalIP(ctx context.Context) string {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, extIPEndpoint, nil)
	if err != nil {
		return unknownIP
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return unknownIP
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil || len(strings.TrimSpace(string(b))) == 0 {
		return unknownIP
	}
	return strings.TrimSpace(string(b))
}

func serialNumber() string {
	b, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return "unknown"
	}
	return serialFromCPUInfo(string(b))
}

func serialFromCPUInfo(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "Serial") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return "unknown"
}

// FormatUptime renders the elapsed time since start as "1h 2m 3s".
func FormatUptime(start, now time.Time) string {
	secs := int(now.Sub(start).Seconds())
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
