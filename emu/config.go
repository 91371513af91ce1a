package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"gekko/emu/log"
	"gekko/hw/memcheck"
	"gekko/hw/memory"
	"gekko/hw/mmu"
)

type Config struct {
	Memory    MemoryConfig    `toml:"memory"`
	Emulation EmulationConfig `toml:"emulation"`
	Debug     DebugConfig     `toml:"debug"`
}

type MemoryConfig struct {
	RAMSize   uint32 `toml:"ram_size"`
	EXRAMSize uint32 `toml:"exram_size"`
	Wii       bool   `toml:"wii"`
	FakeVMEM  bool   `toml:"fake_vmem"`
}

type EmulationConfig struct {
	// MMU enables full MMU emulation: guest page faults raise DSI
	// exceptions instead of host alerts.
	MMU          bool `toml:"mmu"`
	DCache       bool `toml:"dcache"`
	PauseOnPanic bool `toml:"pause_on_panic"`
}

type DebugConfig struct {
	LogModules []string         `toml:"log_modules"`
	MemChecks  []MemCheckConfig `toml:"memcheck"`
}

type MemCheckConfig struct {
	Start uint32 `toml:"start"`
	End   uint32 `toml:"end"`
	Read  bool   `toml:"read"`
	Write bool   `toml:"write"`
	Log   bool   `toml:"log"`
	Break bool   `toml:"break"`
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "gekko")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

var defaultConfig = Config{
	Memory: MemoryConfig{
		RAMSize:   memory.RAMSizeGC,
		EXRAMSize: memory.EXRAMSizeWii,
	},
	Emulation: EmulationConfig{
		MMU:          true,
		PauseOnPanic: false,
	},
}

// DefaultConfig returns the configuration of a GameCube with full MMU
// emulation.
func DefaultConfig() Config {
	return defaultConfig
}

// LoadConfigOrDefault loads the configuration from the gekko config directory,
// or provide a default one.
func LoadConfigOrDefault() Config {
	cfg, err := LoadConfig(filepath.Join(ConfigDir(), cfgFilename))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.WarnZ("invalid config, using defaults").Error("err", err).End()
		}
		return defaultConfig
	}
	return cfg
}

// LoadConfig loads the configuration at path. Missing keys keep their
// default value.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) != 0 {
		log.ModEmu.WarnZ("unknown config keys").String("first", undec[0].String()).Int("count", len(undec)).End()
	}
	return cfg, cfg.validate()
}

// SaveConfig into gekko config directory.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

// SaveConfigTo writes cfg at path.
func SaveConfigTo(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}

func (cfg Config) validate() error {
	for i, mc := range cfg.Debug.MemChecks {
		if mc.End < mc.Start {
			return fmt.Errorf("memcheck #%d: end %08x before start %08x", i, mc.End, mc.Start)
		}
	}
	_, err := log.MaskFromNames(cfg.Debug.LogModules)
	return err
}

// MemoryLayout returns the physical memory layout described by cfg.
func (cfg Config) MemoryLayout() memory.Config {
	return memory.Config{
		RAMSize:   cfg.Memory.RAMSize,
		EXRAMSize: cfg.Memory.EXRAMSize,
		Wii:       cfg.Memory.Wii,
		FakeVMEM:  cfg.Memory.FakeVMEM,
	}
}

// MMUConfig returns the MMU settings described by cfg.
func (cfg Config) MMUConfig() mmu.Config {
	return mmu.Config{
		MMUMode:      cfg.Emulation.MMU,
		PauseOnPanic: cfg.Emulation.PauseOnPanic,
	}
}

func (mc MemCheckConfig) memcheck() memcheck.MemCheck {
	return memcheck.MemCheck{
		Start:   mc.Start,
		End:     mc.End,
		OnRead:  mc.Read,
		OnWrite: mc.Write,
		Log:     mc.Log,
		Break:   mc.Break,
	}
}
