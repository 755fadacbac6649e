// The host package gathers details about the machine the simulated kernel
// is running on — just enough to size a simulated multiprocessor (`boot
// --cpus=auto`) and to label diagnostics with the host's OS/kernel.
package host

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	DefaultProcRoot   = "/proc"
	OSReleaseFilePath = "/etc/os-release"
	OSKernelFilePath  = "sys/kernel/osrelease"
	CPUInfoFilePath   = "cpuinfo"
	UnknownKey        = "UNKNOWN"
)

// OS represents details about the operating system.
type OS struct {
	Name    string
	Version string
}

// Kernel represents the operating-system's kernel's details.
type Kernel struct {
	Type    string
	Version string
}

// Hardware represents the hardware on the machine.
type Hardware struct {
	CPU          CPUInfo
	Architecture string
}

// CPUInfo represents details about the central processing unit.
type CPUInfo struct {
	CPUCount int
}

// HostReader defines the actions available for retrieving information about a host.
type HostReader interface {
	// GetOS retrieves operating-system details
	GetOS() (*OS, error)
	// GetKernel retrieves kernel details.
	GetKernel() (*Kernel, error)
	// GetHardware retrieves hardware-level details, including the CPU count
	// used to size `boot --cpus=auto`.
	GetHardware() (*Hardware, error)
}

// LinuxReader is the Linux-specific implementation of [HostReader].
type LinuxReader struct {
	procDir string
}

type LinuxReaderConfig struct {
	ProcDirPath string
}

func NewLinuxReader(conf LinuxReaderConfig) LinuxReader {
	if conf.ProcDirPath == "" {
		conf.ProcDirPath = DefaultProcRoot
	}
	return LinuxReader{
		procDir: conf.ProcDirPath,
	}
}

// GetOS looks up details about the operating system within /etc/os-release.
// We rely on details found inside os-release that comply with metadata found in the [freedesktop
// specification].
//
// [freedesktop specification]: https://www.freedesktop.org/software/systemd/man/os-release.html
func (h *LinuxReader) GetOS() (*OS, error) {
	releaseFileData, err := os.ReadFile(OSReleaseFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed locating OS details at %s. Error was: %s",
			OSReleaseFilePath, err)
	}

	OSReleaseData := parseOSRelease(releaseFileData)
	return &OS{
		Name:    OSReleaseData["ID"],
		Version: sanitizeOSVersion(OSReleaseData["VERSION"]),
	}, nil
}

// GetKernel retrieves details about the kernel of the operating system.
func (h *LinuxReader) GetKernel() (*Kernel, error) {
	kernelFilePath := filepath.Join(h.procDir, OSKernelFilePath)
	kernelFileData, err := os.ReadFile(kernelFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed getting kernel version from %s. Error was: %s", OSKernelFilePath, err)
	}
	return &Kernel{
		Type:    "Linux",
		Version: strings.TrimSpace(string(kernelFileData)),
	}, nil
}

// GetHardware retrieves the host's architecture and CPU count. The CPU
// count feeds `boot --cpus=auto`'s decision for how many scheduler-loop
// goroutines to start.
func (h *LinuxReader) GetHardware() (*Hardware, error) {
	arch := getArch()
	cpu := h.getCPUInfo()

	return &Hardware{
		CPU:          cpu,
		Architecture: arch,
	}, nil
}

// getCPUInfo retrieves the processor count from /proc/cpuinfo. If there's
// an error reading the file, an empty CPUInfo is returned rather than
// failing the whole hardware lookup.
func (h *LinuxReader) getCPUInfo() CPUInfo {
	processorCount := 0
	cpuInfoPath := filepath.Join(h.procDir, CPUInfoFilePath)
	f, err := os.Open(cpuInfoPath)
	if err != nil {
		log.Printf("failed retrieving processor type from %s. Error was: %s", CPUInfoFilePath, err)
		return CPUInfo{}
	}
	defer f.Close()
	scanner := bufio.NewScanner(bufio.NewReader(f))
	for scanner.Scan() {
		line := scanner.Text()
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			continue
		}
		kv[0] = strings.TrimSpace(kv[0])
		if kv[0] == "processor" {
			processorCount++
		}
	}
	return CPUInfo{
		CPUCount: processorCount,
	}
}

// getArch calls the equivalent of uname -m to get the architecture (e.g. x86 or aarch64).
func getArch() string {
	var utsname unix.Utsname
	err := unix.Uname(&utsname)
	if err != nil {
		return UnknownKey
	}
	return string(utsname.Machine[:])
}

// sanitizeOSVersion removes a double quote character from the beginning and end of a string if
// present.
func sanitizeOSVersion(version string) string {
	return strings.Trim(version, "\"")
}

// parseOSRelease takes the contents of an /etc/os-release file and returns a map containing each
// key/value pair. The key/value pair is determined by parsing the syntax of $KEY=$VALUE within the
// file.
func parseOSRelease(releaseFileContents []byte) map[string]string {
	scanner := bufio.NewScanner(bytes.NewReader(releaseFileContents))
	osReleaseMap := map[string]string{}
	for scanner.Scan() {
		line := scanner.Text()
		kv := strings.SplitN(line, "=", 2)
		if len(kv) == 2 {
			osReleaseMap[kv[0]] = kv[1]
		}
	}
	return osReleaseMap
}
