package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/vvyiloff/post-install/internal/audit"
	"github.com/vvyiloff/post-install/internal/catalog"
	"github.com/vvyiloff/post-install/internal/logging"
	"github.com/vvyiloff/post-install/internal/winget"
)

var log = logging.L("installer")

// Installer performs one package install.
type Installer interface {
	Install(ctx context.Context, id, name string) (winget.InstallResult, error)
}

// Confirmer asks the user a yes/no question. It may block until answered.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, title, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) (bool, error) {
	return f(ctx, title, message)
}

var (
	// AlwaysYes accepts every prompt.
	AlwaysYes = ConfirmFunc(func(context.Context, string, string) (bool, error) { return true, nil })
	// AlwaysNo declines every prompt.
	AlwaysNo = ConfirmFunc(func(context.Context, string, string) (bool, error) { return false, nil })
)

// Rebooter schedules a host restart.
type Rebooter interface {
	ScheduleReboot(ctx context.Context, delay time.Duration) error
}

// Recorder receives audit events for a run.
type Recorder interface {
	Log(eventType string, runID string, details map[string]any)
}

// Outcome is the result of installing one entry.
type Outcome struct {
	ID           string
	Name         string
	Success      bool
	Message      string
	RebootHinted bool
}

// Summary aggregates a run. SuccessCount+ErrorCount == len(Outcomes).
type Summary struct {
	RunID          string
	SuccessCount   int
	ErrorCount     int
	RebootRequired bool
	// RebootHinted is set when an installer mentioned a restart even though
	// its catalog entry is not flagged.
	RebootHinted    bool
	RebootScheduled bool
	// RebootError explains why an accepted restart could not be scheduled.
	RebootError string
	Outcomes    []Outcome
	Duration    time.Duration
}

// Observer receives run events. Calls are made from the goroutine running
// Run, in order; nothing depends on what an observer does.
type Observer interface {
	// Progress is called before each install with the number of entries
	// already finished, and once more with index == total when the run ends.
	Progress(text string, index, total int)
	Outcome(o Outcome)
	Summary(s Summary)
	// RebootPrompt lists the selected entries that need a restart.
	RebootPrompt(entries []catalog.Entry)
}

type nopObserver struct{}

func (nopObserver) Progress(string, int, int)    {}
func (nopObserver) Outcome(Outcome)              {}
func (nopObserver) Summary(Summary)              {}
func (nopObserver) RebootPrompt([]catalog.Entry) {}

// Orchestrator drives install runs for sessions.
type Orchestrator struct {
	installer   Installer
	confirmer   Confirmer
	observer    Observer
	rebooter    Rebooter
	rebootDelay time.Duration
	recorder    Recorder
	newRunID    func() string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sets the progress sink.
func WithObserver(o Observer) Option {
	return func(orc *Orchestrator) {
		if o != nil {
			orc.observer = o
		}
	}
}

// WithRebooter enables the post-run restart offer.
func WithRebooter(r Rebooter, delay time.Duration) Option {
	return func(orc *Orchestrator) {
		orc.rebooter = r
		orc.rebootDelay = delay
	}
}

// WithRecorder sends audit events to r.
func WithRecorder(r Recorder) Option {
	return func(orc *Orchestrator) { orc.recorder = r }
}

// New creates an Orchestrator.
func New(installer Installer, confirmer Confirmer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		installer: installer,
		confirmer: confirmer,
		observer:  nopObserver{},
		newRunID: func() string {
			return fmt.Sprintf("run-%d", time.Now().UnixNano())
		},
	}
	if o.confirmer == nil {
		o.confirmer = AlwaysNo
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run installs the session's selection. It fails without side effects when
// the selection is empty, another run is active, or the user declines.
// Once running, every entry is attempted in selection order and failures
// are collected in the summary; the batch is not cancelled by ctx.
func (o *Orchestrator) Run(ctx context.Context, s *Session) (Summary, error) {
	entries, err := s.begin()
	if err != nil {
		return Summary{}, err
	}

	title, message := confirmation(entries)
	ok, err := o.confirmer.Confirm(ctx, title, message)
	if err != nil || !ok {
		s.transition(Confirming, Idle)
		if err != nil {
			return Summary{}, fmt.Errorf("confirm installation: %w", err)
		}
		log.Info("installation declined", "entries", len(entries))
		return Summary{}, ErrDeclined
	}

	s.transition(Confirming, Running)
	summary := o.install(context.WithoutCancel(ctx), entries)

	// The session stays Running until the restart offer is settled.
	o.observer.Summary(summary)
	if summary.RebootRequired {
		o.offerReboot(ctx, entries, &summary)
	}
	s.transition(Running, Completed)
	return summary, nil
}

func (o *Orchestrator) install(ctx context.Context, entries []catalog.Entry) Summary {
	start := time.Now()
	summary := Summary{RunID: o.newRunID()}
	logger := logging.WithRun(log, summary.RunID)

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	o.record(audit.EventInstallRun, summary.RunID, map[string]any{"entries": ids})
	logger.Info("installation started", "entries", len(entries))

	total := len(entries)
	for i, e := range entries {
		name := e.DisplayName()
		o.observer.Progress("Installing "+name, i, total)

		outcome := Outcome{ID: e.ID, Name: name}
		res, err := o.installer.Install(ctx, e.ID, name)
		if err != nil {
			outcome.Message = fmt.Sprintf("%s: %v", name, err)
		} else {
			outcome.Success = res.Success
			outcome.Message = res.Message
			outcome.RebootHinted = res.RebootHinted
		}
		if outcome.Message == "" {
			outcome.Message = defaultMessage(outcome)
		}

		if outcome.Success {
			summary.SuccessCount++
		} else {
			summary.ErrorCount++
			logger.Warn("install failed", logging.KeyPackageID, e.ID, "message", outcome.Message)
		}
		if e.Reboot {
			summary.RebootRequired = true
		}
		if outcome.RebootHinted && !e.Reboot {
			summary.RebootHinted = true
		}
		summary.Outcomes = append(summary.Outcomes, outcome)

		o.observer.Outcome(outcome)
		o.record(audit.EventInstallOutcome, summary.RunID, map[string]any{
			"id":      e.ID,
			"success": outcome.Success,
			"message": outcome.Message,
		})
	}

	summary.Duration = time.Since(start)
	o.observer.Progress("Installation finished", total, total)
	logger.Info("installation finished",
		"success", summary.SuccessCount,
		"errors", summary.ErrorCount,
		"rebootRequired", summary.RebootRequired,
		logging.KeyDurationMs, summary.Duration.Milliseconds(),
	)
	return summary
}

func (o *Orchestrator) offerReboot(ctx context.Context, entries []catalog.Entry, summary *Summary) {
	var needs []catalog.Entry
	for _, e := range entries {
		if e.Reboot {
			needs = append(needs, e)
		}
	}
	o.observer.RebootPrompt(needs)

	if o.rebooter == nil {
		return
	}
	ok, err := o.confirmer.Confirm(ctx, titleRebootNow, rebootQuestion(needs))
	if err != nil {
		log.Warn("reboot confirmation failed", logging.KeyError, err.Error())
		return
	}
	if !ok {
		log.Info("reboot postponed by user")
		return
	}
	if err := o.rebooter.ScheduleReboot(ctx, o.rebootDelay); err != nil {
		log.Error("reboot could not be scheduled", logging.KeyError, err.Error())
		summary.RebootError = err.Error()
		return
	}
	summary.RebootScheduled = true
	o.record(audit.EventRebootScheduled, summary.RunID, map[string]any{"delaySeconds": int(o.rebootDelay / time.Second)})
}

func (o *Orchestrator) record(eventType, runID string, details map[string]any) {
	if o.recorder != nil {
		o.recorder.Log(eventType, runID, details)
	}
}

func defaultMessage(o Outcome) string {
	if o.Success {
		return o.Name + " installed successfully"
	}
	return o.Name + ": installation failed"
}
