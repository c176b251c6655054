package cli

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// globalFlags holds the flags that apply before the command name.
type globalFlags struct {
	workDir    string
	configPath string
	bundle     string
	remaining  []string
}

// parseGlobalFlags parses flags up to the first non-flag argument.
func parseGlobalFlags(args []string) (globalFlags, error) {
	flagSet := flag.NewFlagSet("dp", flag.ContinueOnError)
	flagSet.SetInterspersed(false)

	var gf globalFlags

	flagSet.StringVarP(&gf.workDir, "cwd", "C", "", "run as if started in this directory")
	flagSet.StringVarP(&gf.configPath, "config", "c", "", "explicit config file path")
	flagSet.StringVarP(&gf.bundle, "bundle", "b", "", "document bundle directory")

	if err := flagSet.Parse(args); err != nil {
		return globalFlags{}, err
	}

	gf.remaining = flagSet.Args()

	return gf, nil
}

// Run is the main entry point. Returns the exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	o := NewIO(in, out, errOut)

	if len(args) < 2 {
		printUsage(o)

		return 0
	}

	gf, err := parseGlobalFlags(args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(o)

			return 0
		}

		o.ErrPrintln("error:", err)

		return 1
	}

	if len(gf.remaining) == 0 {
		printUsage(o)

		return 0
	}

	name := gf.remaining[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(o)

		return 0
	}

	cmd := lookupCommand(name)
	if cmd == nil {
		o.ErrPrintln(fmt.Sprintf("error: unknown command %q", name))
		printUsage(o)

		return 1
	}

	// init creates the bundle the other commands need, so it resolves
	// its target from its own argument, not from config.
	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: gf.workDir,
		ConfigPath:      gf.configPath,
		BundleOverride:  gf.bundle,
		Env:             env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return cmd.Run(o, cfg, gf.remaining[1:])
}

// commands returns the command table in help order.
func commands() []*Command {
	return []*Command{
		cmdInit(),
		cmdShow(),
		cmdGet(),
		cmdSet(),
		cmdProps(),
		cmdInfo(),
		cmdEdit(),
	}
}

func lookupCommand(name string) *Command {
	for _, c := range commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func printUsage(o *IO) {
	o.Println("Usage: dp [global flags] <command> [args]")
	o.Println()
	o.Println("Edit document bundles: a UTF-8 body, a metadata record, and")
	o.Println("free-form properties, saved together on explicit save.")
	o.Println()
	o.Println("Commands:")

	for _, c := range commands() {
		o.Println(c.HelpLine())
	}

	o.Println()
	o.Println("Global flags:")
	o.Println("  -C, --cwd <dir>        run as if started in <dir>")
	o.Println("  -c, --config <file>    explicit config file")
	o.Println("  -b, --bundle <dir>     document bundle directory")
	o.Println()
	o.Println("Config: .dp.json in the working directory, ~/.config/dp/config.json,")
	o.Println("and DP_BUNDLE / DP_HISTORY environment variables.")
}
