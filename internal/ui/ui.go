package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/sokinpui/xattred/internal/dump"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	NameColor    = color.New(color.FgCyan)

	stringColor  = color.New(color.FgGreen)
	hexColor     = color.New(color.FgMagenta)
	base64Color  = color.New(color.FgYellow)
	unknownColor = color.New()
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

// Token returns the color for an attribute value of the given encoding.
func Token(kind dump.Kind) *color.Color {
	switch kind {
	case dump.KindString:
		return stringColor
	case dump.KindHex:
		return hexColor
	case dump.KindBase64:
		return base64Color
	default:
		return unknownColor
	}
}

// FprintDump renders a dump with headers, names and values colorized. Color
// is dropped automatically when stdout is not a terminal, so piped output
// stays parseable.
func FprintDump(w io.Writer, d dump.Dump) {
	for _, rec := range d {
		HeaderColor.Fprintf(w, "# file: %s\n", rec.Path)
		for _, a := range rec.Attrs {
			NameColor.Fprint(w, a.Name)
			fmt.Fprint(w, "=")
			Token(dump.Classify(a.Value)).Fprintln(w, a.Value)
		}
	}
}

// --- Summaries ---

func PrintEditSummary(modified, unchanged, skipped, failed []string) {
	Header("\n--- Edit Summary ---")

	if len(modified) == 0 && len(unchanged) == 0 && len(skipped) == 0 && len(failed) == 0 {
		Info("No files were processed.")
		return
	}

	if len(modified) > 0 {
		Success("Updated attributes on %d file(s):", len(modified))
		for _, f := range modified {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(unchanged) > 0 {
		Info("Unchanged %d file(s):", len(unchanged))
		for _, f := range unchanged {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(skipped) > 0 {
		Warning("Skipped %d file(s) removed from the edited text:", len(skipped))
		for _, f := range skipped {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(failed) > 0 {
		Error("Failed to process %d file(s):", len(failed))
		for _, f := range failed {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func PrintRevertSummary(reverted, failed []string) {
	Header("\n--- Revert Summary ---")
	if len(reverted) > 0 {
		Success("Successfully reverted %d file(s):", len(reverted))
		for _, f := range reverted {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(failed) > 0 {
		Error("Failed to revert %d file(s):", len(failed))
		for _, f := range failed {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func PrintRedoSummary(redone, failed []string) {
	Header("\n--- Redo Summary ---")
	if len(redone) > 0 {
		Success("Successfully redid %d file(s):", len(redone))
		for _, f := range redone {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(failed) > 0 {
		Error("Failed to redo %d file(s):", len(failed))
		for _, f := range failed {
			fmt.Printf("  - %s\n", f)
		}
	}
}

// PrintDryRun lists the backend calls a save would have issued.
func PrintDryRun(ops []string) {
	Header("\n--- Dry Run ---")
	if len(ops) == 0 {
		Info("No operations would be issued.")
		return
	}
	Info("Would issue %d operation(s):", len(ops))
	for _, op := range ops {
		fmt.Printf("  - %s\n", op)
	}
}

// --- Progress Bar ---

type ProgressBar struct {
	total   int
	prefix  string
	current int
}

func NewProgressBar(total int, prefix string) *ProgressBar {
	return &ProgressBar{total: total, prefix: prefix}
}

func (p *ProgressBar) Start() {
	p.draw()
}

func (p *ProgressBar) Increment() {
	p.current++
	p.draw()
}

func (p *ProgressBar) Finish() {
	fmt.Fprintln(os.Stderr)
}

func (p *ProgressBar) draw() {
	if p.total == 0 {
		return
	}
	const barLength = 40
	percent := float64(p.current) / float64(p.total)
	filledLength := int(percent * barLength)
	bar := strings.Repeat("█", filledLength) + strings.Repeat("-", barLength-filledLength)

	percentStr := fmt.Sprintf("%.1f%%", percent*100)
	countStr := fmt.Sprintf("[%d/%d]", p.current, p.total)

	fmt.Fprintf(os.Stderr, "\r%s |%s| %s %s", p.prefix, bar, countStr, percentStr)
}
