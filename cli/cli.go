package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	Print       bool
	Apply       bool
	DryRun      bool
	Revert      bool
	Redo        bool
	Host        bool
	NoAnimation bool
	Match       string
	Backend     string
	Editor      string
	ConfigPath  string
	LogLevel    string
	Files       []string
}

// ParseFlags defines and parses command-line flags using pflag. args is the
// command line without the program name.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}
	flags := pflag.NewFlagSet("xattred", pflag.ContinueOnError)

	flags.BoolVarP(&cfg.Print, "print", "p", false, "Print attributes without editing.")
	flags.BoolVarP(&cfg.Apply, "apply", "a", false, "Apply a dump read from stdin (pipe) or the clipboard.")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Show the operations a save would issue without applying them.")
	flags.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable loading spinner and progress updates.")
	flags.BoolVar(&cfg.Host, "host", false, "Edit in the surrounding Neovim instance instead of spawning an editor.")
	flags.StringVarP(&cfg.Match, "match", "m", "", "Only list attributes matching this pattern. Use '-' for all namespaces.")
	flags.StringVar(&cfg.Backend, "backend", "", "Attribute backend: 'syscall' or 'tools'.")
	flags.StringVar(&cfg.Editor, "editor", "", "Editor command (overrides $VISUAL and $EDITOR).")
	flags.StringVarP(&cfg.ConfigPath, "config", "c", "", "Config file path.")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "Log level: none, info or debug.")

	// Mutually exclusive history group
	flags.BoolVarP(&cfg.Revert, "revert", "r", false, "Revert the last save.")
	flags.BoolVarP(&cfg.Redo, "redo", "R", false, "Redo the last reverted save.")

	flags.Usage = func() {
		fmt.Println("Usage: xattred [flags] <file>...")
		fmt.Println("\nEdit the extended attributes of files as text.")
		fmt.Println("\nExample: xattred report.pdf")
		fmt.Println("\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	cfg.Files = flags.Args()

	// Validate mutually exclusive flags
	modes := 0
	for _, on := range []bool{cfg.Print, cfg.Apply, cfg.Revert, cfg.Redo} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return nil, fmt.Errorf("error: --print, --apply, --revert and --redo are mutually exclusive")
	}

	switch {
	case cfg.Apply, cfg.Revert, cfg.Redo:
		if len(cfg.Files) > 0 {
			return nil, fmt.Errorf("error: this mode takes no file arguments")
		}
	default:
		if len(cfg.Files) == 0 {
			return nil, fmt.Errorf("error: at least one file is required")
		}
	}

	return cfg, nil
}
