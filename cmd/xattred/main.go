package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sokinpui/xattred/cli"
	"github.com/sokinpui/xattred/internal/tui"
	"github.com/sokinpui/xattred/internal/ui"
	"github.com/sokinpui/xattred/model"
	"github.com/sokinpui/xattred/xattred"
)

func main() {
	cfg, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		// pflag already prints the error message.
		os.Exit(1)
	}

	app, err := xattred.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Print mode writes the dump to stdout and should not run the TUI.
	if cfg.Print {
		if _, err := app.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.NoAnimation {
		runPlain(app, cfg)
		return
	}

	editMode := !cfg.Apply && !cfg.Revert && !cfg.Redo
	if _, err := tea.NewProgram(tui.New(app, editMode)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// runPlain executes without the TUI, reporting through plain messages and a
// progress bar.
func runPlain(app *xattred.App, cfg *cli.Config) {
	var bar *ui.ProgressBar
	app.SetProgressCallback(func(current, total int) {
		if bar == nil {
			bar = ui.NewProgressBar(total, "Applying")
			bar.Start()
		}
		if current > 0 {
			bar.Increment()
		}
	})

	summary, err := app.Execute()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		var detailed *xattred.DetailedError
		if errors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		ui.Error("Error: %v", err)
		os.Exit(1)
	}

	printSummary(summary, cfg)
}

func printSummary(summary model.Summary, cfg *cli.Config) {
	if summary.Message != "" {
		ui.Header(summary.Message)
	}
	switch {
	case cfg.DryRun:
		ui.PrintDryRun(summary.Operations)
	case cfg.Revert:
		ui.PrintRevertSummary(summary.Modified, summary.Failed)
	case cfg.Redo:
		ui.PrintRedoSummary(summary.Modified, summary.Failed)
	default:
		if !summary.Empty() {
			ui.PrintEditSummary(summary.Modified, summary.Unchanged, summary.Skipped, summary.Failed)
		}
	}
}
