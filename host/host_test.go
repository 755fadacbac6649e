package host

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Test CPU @ 3.00GHz

processor	: 1
vendor_id	: GenuineIntel
model name	: Test CPU @ 3.00GHz

processor	: 2
vendor_id	: GenuineIntel
model name	: Test CPU @ 3.00GHz

processor	: 3
vendor_id	: GenuineIntel
model name	: Test CPU @ 3.00GHz
`

func TestGetHardware(t *testing.T) {
	procDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(procDir, CPUInfoFilePath), []byte(sampleCPUInfo), 0o644); err != nil {
		t.Fatalf("failed writing mock cpuinfo: %s", err)
	}

	lr := NewLinuxReader(LinuxReaderConfig{ProcDirPath: procDir})
	hw, err := lr.GetHardware()
	if err != nil {
		t.Fatalf("GetHardware failed: %s", err)
	}
	if hw.CPU.CPUCount != 4 {
		t.Fatalf("unexpected CPU count: expected %d, actual %d", 4, hw.CPU.CPUCount)
	}
}

func TestGetHardwareMissingProc(t *testing.T) {
	lr := NewLinuxReader(LinuxReaderConfig{ProcDirPath: filepath.Join(t.TempDir(), "does-not-exist")})
	hw, err := lr.GetHardware()
	if err != nil {
		t.Fatalf("GetHardware should tolerate a missing cpuinfo file, got error: %s", err)
	}
	if hw.CPU.CPUCount != 0 {
		t.Fatalf("expected a zero CPU count when cpuinfo is unreadable, got %d", hw.CPU.CPUCount)
	}
}

func TestParseOSRelease(t *testing.T) {
	data := []byte("ID=ubuntu\nVERSION=\"22.04\"\n")
	parsed := parseOSRelease(data)
	if parsed["ID"] != "ubuntu" {
		t.Fatalf("expected ID ubuntu, got %s", parsed["ID"])
	}
	if sanitizeOSVersion(parsed["VERSION"]) != "22.04" {
		t.Fatalf("expected sanitized version 22.04, got %s", sanitizeOSVersion(parsed["VERSION"]))
	}
}
