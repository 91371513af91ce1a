package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"gekko/emu/log"
)

type mode byte

const (
	translateMode mode = iota // Translate an address
	readMode                  // Read a value from guest memory
	writeMode                 // Write a value to guest memory
	dumpMode                  // Hex dump of guest memory
	batsMode                  // Show BAT registers
	scriptMode                // Run a Lua script
	configMode                // Show configuration
	versionMode               // Show gekko version
)

type (
	CLI struct {
		Translate Translate `cmd:"" help:"Translate an effective address."`
		Read      Read      `cmd:"" help:"Read a value from guest memory."`
		Write     Write     `cmd:"" help:"Write a value to guest memory."`
		Dump      Dump      `cmd:"" help:"Hex dump of guest memory."`
		BATs      BATs      `cmd:"" name:"bats" help:"Show BAT registers and the blocks they map."`
		Script    Script    `cmd:"" help:"Run a Lua script against guest memory."`
		Config    ConfigCmd `cmd:"" help:"Show the configuration in use."`
		Version   Version   `cmd:"" help:"Show gekko version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	// System holds the flags shared by the commands that power up a system.
	System struct {
		Config string `name:"config" help:"${config_help}" type:"existingfile"`
		RAM    string `name:"ram" help:"${ram_help}" type:"existingfile"`
		State  string `name:"state" help:"${state_help}" type:"existingfile"`
		DR     bool   `name:"dr" help:"Enable data address translation."`
		IR     bool   `name:"ir" help:"Enable instruction address translation."`
	}

	Translate struct {
		System `embed:""`
		Addr   address `arg:"" help:"Effective address."`
	}

	Read struct {
		System `embed:""`
		Addr   address `arg:"" help:"Address to read."`
		Type   string  `name:"type" short:"t" help:"${type_help}" enum:"${types}" default:"u32"`
		Space  string  `name:"space" help:"${space_help}" enum:"${spaces}" default:"effective"`
	}

	Write struct {
		System    `embed:""`
		Addr      address `arg:"" help:"Address to write."`
		Value     string  `arg:"" help:"Value to write."`
		Type      string  `name:"type" short:"t" help:"${type_help}" enum:"${numtypes}" default:"u32"`
		Space     string  `name:"space" help:"${space_help}" enum:"${spaces}" default:"effective"`
		SaveState string  `name:"save-state" help:"Write the MMU state to file on exit." type:"path"`
	}

	Dump struct {
		System `embed:""`
		Addr   address  `arg:"" help:"Start address."`
		Len    int      `name:"len" short:"n" help:"Number of bytes to dump." default:"256"`
		Space  string   `name:"space" help:"${space_help}" enum:"${spaces}" default:"effective"`
		Out    *outfile `name:"out" short:"o" help:"Write the dump to file." placeholder:"FILE|stdout|stderr"`
	}

	BATs struct {
		System `embed:""`
	}

	Script struct {
		System    `embed:""`
		Path      string `arg:"" name:"/path/to/script.lua" type:"existingfile"`
		SaveState string `name:"save-state" help:"Write the MMU state to file on exit." type:"path"`
	}

	ConfigCmd struct {
		Config string `name:"config" help:"${config_help}" type:"existingfile"`
		Save   bool   `name:"save" help:"Write the configuration to the user config directory."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"config_help": "Configuration file. (default: config.toml in the user config directory)",
	"ram_help":    "Load a memory image at physical address 0.",
	"state_help":  "Restore the MMU state from file.",
	"type_help":   "Value type.",
	"space_help":  "Address space: effective, physical or virtual.",
	"types":       "u8,u16,u32,u64,s8,s16,s32,s64,f32,f64,string,u16string,instr",
	"numtypes":    "u8,u16,u32,u64,s8,s16,s32,s64,f32,f64",
	"spaces":      "effective,physical,virtual",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("gekko"),
		kong.Description("Gekko/Broadway memory management unit emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	cmd, _, _ := strings.Cut(ctx.Command(), " ")
	switch cmd {
	case "translate":
		cfg.mode = translateMode
	case "read":
		cfg.mode = readMode
	case "write":
		cfg.mode = writeMode
	case "dump":
		cfg.mode = dumpMode
	case "bats":
		cfg.mode = batsMode
	case "script":
		cfg.mode = scriptMode
	case "config":
		cfg.mode = configMode
	case "version":
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() == "" {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

// address is a 32-bit guest address, in decimal or 0x-prefixed hexadecimal.
type address uint32

// Decode implements kong.MapperValue interface.
func (a *address) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected an address, got %v", tok.Value)
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid address %q", s)
	}
	*a = address(v)
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
