// Package xattred wires the attribute backends, the edit sessions and the
// history together behind the command-line surface. The cmd wrapper and the
// TUI only ever talk to the App type.
package xattred

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/sokinpui/xattred/cli"
	"github.com/sokinpui/xattred/internal/attr"
	"github.com/sokinpui/xattred/internal/config"
	"github.com/sokinpui/xattred/internal/dlog"
	"github.com/sokinpui/xattred/internal/dump"
	"github.com/sokinpui/xattred/internal/editor"
	"github.com/sokinpui/xattred/internal/fs"
	"github.com/sokinpui/xattred/internal/session"
	"github.com/sokinpui/xattred/internal/source"
	"github.com/sokinpui/xattred/internal/state"
	"github.com/sokinpui/xattred/internal/ui"
	"github.com/sokinpui/xattred/model"
)

// ProgressUpdate is a callback function to report progress.
type ProgressUpdate func(current, total int)

// App orchestrates the entire application logic.
type App struct {
	cfg              *cli.Config
	conf             config.Config
	backend          attr.Backend
	recorder         *attr.Recorder // set in dry-run mode, wraps backend
	state            *state.Manager
	source           *source.SourceProvider
	log              *zap.Logger
	progressCallback ProgressUpdate
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	mergeConfig(&conf, cfg)

	log, err := dlog.GetLogger(conf.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.LogLevel, err)
	}

	backend, err := buildBackend(conf, log)
	if err != nil {
		return nil, err
	}

	stateManager, err := state.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}

	a := &App{
		cfg:     cfg,
		conf:    conf,
		backend: backend,
		state:   stateManager,
		source:  source.New(),
		log:     log,
	}
	if cfg.DryRun {
		a.recorder = attr.NewRecorder(backend)
		a.backend = a.recorder
	}
	return a, nil
}

// mergeConfig lets command-line flags override file and environment values.
func mergeConfig(conf *config.Config, cfg *cli.Config) {
	if cfg.Match != "" {
		conf.Match = cfg.Match
	}
	if cfg.Backend != "" {
		conf.Backend = cfg.Backend
	}
	if cfg.Editor != "" {
		conf.Editor = cfg.Editor
	}
	if cfg.LogLevel != "" {
		conf.LogLevel = cfg.LogLevel
	}
	if cfg.Host {
		conf.HookIntoHostEditor = true
	}
}

func buildBackend(conf config.Config, log *zap.Logger) (attr.Backend, error) {
	switch conf.Backend {
	case "", "syscall":
		re, err := conf.MatchPattern()
		if err != nil {
			return nil, err
		}
		return attr.NewSyscall(re, log), nil
	case "tools":
		match := conf.Match
		if match == "" {
			match = config.DefaultMatch
		}
		return attr.NewTools(conf.ToolPathGet, conf.ToolPathSet, match, log), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want \"syscall\" or \"tools\")", conf.Backend)
	}
}

// SetProgressCallback sets a function to be called for progress updates.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

// Execute executes the main application logic based on parsed flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Print:
		return a.printAttributes()
	case a.cfg.Apply:
		return a.applyContent()
	case a.cfg.Revert:
		return a.revertLastSave()
	case a.cfg.Redo:
		return a.redoLastSave()
	default:
		return a.editAttributes()
	}
}

// printAttributes dumps the attributes of the configured files to stdout.
func (a *App) printAttributes() (model.Summary, error) {
	paths, err := fs.Absolutize(a.cfg.Files)
	if err != nil {
		return model.Summary{}, err
	}
	d, err := a.backend.Get(paths)
	if err != nil {
		return model.Summary{}, err
	}
	ui.FprintDump(os.Stdout, d)
	return model.Summary{}, nil
}

// EditContext carries one in-progress edit across the editor hand-off.
type EditContext struct {
	TempPath string
	Sessions []*session.Session

	original []byte
}

// BeginEdit snapshots the attributes of the configured files and stages
// them in a temporary dump file for the editor.
func (a *App) BeginEdit() (*EditContext, error) {
	paths, err := fs.Absolutize(a.cfg.Files)
	if err != nil {
		return nil, err
	}

	d, err := a.backend.Get(paths)
	if err != nil {
		return nil, err
	}
	text := d.String()

	tmp, err := os.CreateTemp("", "xattred-*.attrs")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to stage dump: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to stage dump: %w", err)
	}

	sessions := make([]*session.Session, 0, len(d))
	for _, rec := range d {
		sessions = append(sessions, session.New(rec))
	}

	a.log.Debug("staged dump for editing",
		zap.String("path", tmp.Name()), zap.Int("files", len(d)))

	return &EditContext{
		TempPath: tmp.Name(),
		Sessions: sessions,
		original: []byte(text),
	}, nil
}

// EditorCommand returns the command that opens the staged dump in the
// user's editor.
func (a *App) EditorCommand(ctx *EditContext) *exec.Cmd {
	return editor.Command(a.conf.Editor, ctx.TempPath)
}

// UseHostEditor reports whether the edit should happen inside the Neovim
// instance this process runs in.
func (a *App) UseHostEditor() bool {
	return a.conf.HookIntoHostEditor && editor.HostAddress() != ""
}

// EditInHost opens the staged dump in the host Neovim and blocks until the
// user closes the buffer.
func (a *App) EditInHost(ctx *EditContext) error {
	host, err := editor.DialHost()
	if err != nil {
		return err
	}
	defer host.Close()
	return host.Edit(ctx.TempPath)
}

// CancelEdit abandons the edit and removes the staged file.
func (a *App) CancelEdit(ctx *EditContext) {
	for _, s := range ctx.Sessions {
		s.Close()
	}
	os.Remove(ctx.TempPath)
}

// CompleteEdit reads the edited dump back and reconciles every file onto
// it. On a parse failure the staged file is kept so the edit is not lost.
func (a *App) CompleteEdit(ctx *EditContext) (model.Summary, error) {
	edited, err := os.ReadFile(ctx.TempPath)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to read edited dump: %w", err)
	}

	if bytes.Equal(edited, ctx.original) {
		a.CancelEdit(ctx)
		return model.Summary{Message: "No changes."}, nil
	}

	d, err := dump.Parse(string(edited))
	if err != nil {
		for _, s := range ctx.Sessions {
			s.Close()
		}
		return model.Summary{}, fmt.Errorf("edited dump kept at %s: %w", ctx.TempPath, err)
	}

	known := make(map[string]bool, len(ctx.Sessions))
	for _, s := range ctx.Sessions {
		known[s.Path] = true
	}
	var novel []dump.Record
	for _, rec := range d {
		if !known[rec.Path] {
			novel = append(novel, rec)
		}
	}

	total := len(ctx.Sessions) + len(novel)
	step := 0
	bump := func() {
		step++
		if a.progressCallback != nil {
			a.progressCallback(step, total)
		}
	}
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}

	var summary model.Summary
	var saves []state.Save

	for _, s := range ctx.Sessions {
		rec, ok := d.Find(s.Path)
		if !ok {
			// The user deleted the whole block; leave the file alone.
			s.Close()
			summary.Skipped = append(summary.Skipped, s.Path)
			bump()
			continue
		}

		before := dump.Record{Path: s.Path, Attrs: s.Original}.String()
		res, err := s.Reconcile(rec.String(), a.backend)
		if err != nil {
			a.log.Info("reconcile failed", zap.String("path", s.Path), zap.Error(err))
			summary.Failed = append(summary.Failed, s.Path)
			bump()
			continue
		}
		if res.Changed {
			summary.Modified = append(summary.Modified, s.Path)
			saves = append(saves, state.Save{Path: s.Path, Before: before, After: rec.String()})
		} else {
			summary.Unchanged = append(summary.Unchanged, s.Path)
		}
		bump()
	}

	// Blocks the user added for files that were not part of the edit are
	// applied with plain restore semantics: attributes are created or
	// updated, never removed.
	for _, rec := range novel {
		before, err := a.snapshot(rec.Path)
		if err != nil {
			a.log.Info("snapshot failed", zap.String("path", rec.Path), zap.Error(err))
			summary.Failed = append(summary.Failed, rec.Path)
			bump()
			continue
		}
		if err := a.backend.Restore(rec.String()); err != nil {
			a.log.Info("restore failed", zap.String("path", rec.Path), zap.Error(err))
			summary.Failed = append(summary.Failed, rec.Path)
			bump()
			continue
		}
		summary.Modified = append(summary.Modified, rec.Path)
		saves = append(saves, state.Save{Path: rec.Path, Before: before.String(), After: rec.String()})
		bump()
	}

	a.finishMutation(&summary, saves)
	os.Remove(ctx.TempPath)
	return summary, nil
}

// editAttributes runs the whole edit flow without the TUI: stage, block on
// the editor, reconcile.
func (a *App) editAttributes() (model.Summary, error) {
	ctx, err := a.BeginEdit()
	if err != nil {
		return model.Summary{}, err
	}

	if a.UseHostEditor() {
		if err := a.EditInHost(ctx); err != nil {
			a.CancelEdit(ctx)
			return model.Summary{}, err
		}
	} else if err := editor.Edit(a.conf.Editor, ctx.TempPath); err != nil {
		a.CancelEdit(ctx)
		return model.Summary{}, err
	}

	return a.CompleteEdit(ctx)
}

// applyContent applies a dump read from stdin or the clipboard.
func (a *App) applyContent() (model.Summary, error) {
	content, err := a.source.GetContent()
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}
	return a.applyText(content)
}

// applyText parses dump text and restores every block in it. Unlike a save
// from an edit session there is no removal pass; this is the bulk-restore
// entry point.
func (a *App) applyText(content string) (model.Summary, error) {
	d, err := dump.Parse(source.Unfence(content))
	if err != nil {
		return model.Summary{}, err
	}
	if len(d) == 0 {
		return model.Summary{Message: "No attribute blocks found. Nothing to do."}, nil
	}

	var summary model.Summary
	var saves []state.Save

	total := len(d)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}
	for i, rec := range d {
		before, err := a.snapshot(rec.Path)
		if err != nil {
			a.log.Info("snapshot failed", zap.String("path", rec.Path), zap.Error(err))
			summary.Failed = append(summary.Failed, rec.Path)
		} else if err := a.backend.Restore(rec.String()); err != nil {
			a.log.Info("restore failed", zap.String("path", rec.Path), zap.Error(err))
			summary.Failed = append(summary.Failed, rec.Path)
		} else if before.SameAttrs(rec) {
			summary.Unchanged = append(summary.Unchanged, rec.Path)
		} else {
			summary.Modified = append(summary.Modified, rec.Path)
			saves = append(saves, state.Save{Path: rec.Path, Before: before.String(), After: rec.String()})
		}
		if a.progressCallback != nil {
			a.progressCallback(i+1, total)
		}
	}

	a.finishMutation(&summary, saves)
	return summary, nil
}

// revertLastSave reconciles every file of the newest history entry back to
// its before-state.
func (a *App) revertLastSave() (model.Summary, error) {
	var saves []state.Save
	if a.cfg.DryRun {
		saves = a.state.PeekRevert()
	} else {
		var err error
		saves, err = a.state.SavesToRevert()
		if err != nil {
			return model.Summary{}, err
		}
	}
	if len(saves) == 0 {
		return model.Summary{Message: "No save to revert."}, nil
	}

	summary := a.applySaves(saves, func(s state.Save) (string, string) {
		return s.After, s.Before
	})
	summary.Message = "Reverted last save."
	return summary, nil
}

// redoLastSave re-applies the most recently reverted history entry.
func (a *App) redoLastSave() (model.Summary, error) {
	var saves []state.Save
	if a.cfg.DryRun {
		saves = a.state.PeekRedo()
	} else {
		var err error
		saves, err = a.state.SavesToRedo()
		if err != nil {
			return model.Summary{}, err
		}
	}
	if len(saves) == 0 {
		return model.Summary{Message: "No save to redo."}, nil
	}

	summary := a.applySaves(saves, func(s state.Save) (string, string) {
		return s.Before, s.After
	})
	summary.Message = "Redid last save."
	return summary, nil
}

// applySaves replays history entries. pick returns, per save, the dump
// block describing the assumed current state and the block to converge on.
func (a *App) applySaves(saves []state.Save, pick func(state.Save) (from, to string)) model.Summary {
	var summary model.Summary

	total := len(saves)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}
	for i, save := range saves {
		from, to := pick(save)
		if err := a.reconcileBlocks(save.Path, from, to); err != nil {
			a.log.Info("history replay failed", zap.String("path", save.Path), zap.Error(err))
			summary.Failed = append(summary.Failed, save.Path)
		} else {
			summary.Modified = append(summary.Modified, save.Path)
		}
		if a.progressCallback != nil {
			a.progressCallback(i+1, total)
		}
	}

	if a.recorder != nil {
		summary.Operations = a.recorder.Calls()
	}
	return summary
}

// reconcileBlocks converges path from the state described by fromBlock to
// the state described by toBlock.
func (a *App) reconcileBlocks(path, fromBlock, toBlock string) error {
	d, err := dump.Parse(fromBlock)
	if err != nil {
		return fmt.Errorf("corrupt history entry for %s: %w", path, err)
	}
	if len(d) != 1 {
		return fmt.Errorf("corrupt history entry for %s", path)
	}
	s := session.New(d[0])
	_, err = s.Reconcile(toBlock, a.backend)
	return err
}

// snapshot reads one file's current attribute record.
func (a *App) snapshot(path string) (dump.Record, error) {
	d, err := a.backend.Get([]string{path})
	if err != nil {
		return dump.Record{}, err
	}
	if len(d) != 1 {
		return dump.Record{}, fmt.Errorf("expected one record for %s, got %d", path, len(d))
	}
	return d[0], nil
}

// finishMutation records history for real saves and collects recorded
// operations for dry runs.
func (a *App) finishMutation(summary *model.Summary, saves []state.Save) {
	if a.recorder != nil {
		summary.Operations = a.recorder.Calls()
		return
	}
	if len(saves) == 0 {
		return
	}
	if err := a.state.Write(saves); err != nil {
		a.log.Warn("failed to record history", zap.Error(err))
	}
}
