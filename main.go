package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"gekko/emu"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case translateMode:
		sys := cli.Translate.powerUp()
		translateMain(os.Stdout, sys, uint32(cli.Translate.Addr))
	case readMode:
		sys := cli.Read.powerUp()
		checkf(readMain(os.Stdout, sys, cli.Read), "read failed")
	case writeMode:
		sys := cli.Write.powerUp()
		checkf(writeMain(os.Stdout, sys, cli.Write), "write failed")
		saveState(sys, cli.Write.SaveState)
	case dumpMode:
		sys := cli.Dump.powerUp()
		if out := cli.Dump.Out; out != nil {
			defer out.Close()
			checkf(dumpMain(out, dumpWidth(nil), sys, cli.Dump), "dump failed")
			return
		}
		checkf(dumpMain(os.Stdout, dumpWidth(os.Stdout), sys, cli.Dump), "dump failed")
	case batsMode:
		sys := cli.BATs.powerUp()
		batsMain(os.Stdout, sys)
	case scriptMode:
		sys := cli.Script.powerUp()
		checkf(scriptMain(sys, cli.Script.Path), "script failed")
		saveState(sys, cli.Script.SaveState)
	case configMode:
		cfg := loadConfig(cli.Config.Config)
		if cli.Config.Save {
			checkf(emu.SaveConfig(cfg), "failed to save configuration")
		}
		checkf(printConfig(os.Stdout, cfg), "failed to print configuration")
	case versionMode:
		fmt.Println("gekko", version())
	}
}

func version() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

func loadConfig(path string) emu.Config {
	if path == "" {
		return emu.LoadConfigOrDefault()
	}
	cfg, err := emu.LoadConfig(path)
	checkf(err, "failed to load configuration")
	return cfg
}

// powerUp creates the system described by the flags.
func (s System) powerUp() *emu.System {
	sys, err := emu.PowerUp(loadConfig(s.Config))
	checkf(err, "error during power up")

	if s.RAM != "" {
		checkf(sys.LoadMemory(s.RAM, 0), "failed to load memory image")
	}
	if s.State != "" {
		checkf(sys.LoadState(s.State), "failed to load state")
	}
	if s.DR || s.IR {
		sys.SetMSR(s.DR, s.IR)
	}
	return sys
}

func saveState(sys *emu.System, path string) {
	if path == "" {
		return
	}
	checkf(sys.SaveState(path), "failed to save state")
}
