package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gekko/hw/memory"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "config.toml", `
[memory]
wii = true
fake_vmem = true

[emulation]
dcache = true
pause_on_panic = true

[debug]
log_modules = ["mmu", "dbg"]

[[debug.memcheck]]
start = 0x80001000
end = 0x80001003
write = true
break = true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Config{
		Memory: MemoryConfig{
			RAMSize:   memory.RAMSizeGC,
			EXRAMSize: memory.EXRAMSizeWii,
			Wii:       true,
			FakeVMEM:  true,
		},
		Emulation: EmulationConfig{
			MMU:          true,
			DCache:       true,
			PauseOnPanic: true,
		},
		Debug: DebugConfig{
			LogModules: []string{"mmu", "dbg"},
			MemChecks: []MemCheckConfig{
				{Start: 0x80001000, End: 0x80001003, Write: true, Break: true},
			},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name, content string
	}{
		{"syntax", "[memory\n"},
		{"memcheck", "[[debug.memcheck]]\nstart = 16\nend = 8\n"},
		{"log module", "[debug]\nlog_modules = [\"nope\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.toml", tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("LoadConfig should fail")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("LoadConfig of a missing file should fail")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Memory.Wii = true
	cfg.Debug.MemChecks = []MemCheckConfig{{Start: 0x100, End: 0x1FF, Read: true, Log: true}}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveConfigTo(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
