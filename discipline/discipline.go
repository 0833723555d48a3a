// Package discipline provides punishment strategies for sovereignty
// violations.
//
// Every strategy satisfies guard.Discipline and honors its contract: Punish
// never returns control to the caller. Panic is the default and keeps the
// violation observable (and recoverable in tests); Abort terminates the
// whole process for deployments where a violation must not be survivable.
package discipline

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/victoralfred/sovereign/guard"
)

// Mode names accepted by FromMode.
const (
	ModePanic = "panic"
	ModeAbort = "abort"
)

// abortExitCode is the process exit status used by Abort.
const abortExitCode = 2

// Panic returns the default discipline: panic on the offending goroutine
// with a diagnostic naming the action and, for a kill, the lingering
// visitor count.
func Panic() guard.Discipline {
	return panicDiscipline{}
}

type panicDiscipline struct{}

func (panicDiscipline) Punish(action string, info *guard.ViolationInfo) {
	panic(diagnostic(action, info))
}

// Abort returns a discipline that writes the diagnostic to stderr and
// terminates the process.
func Abort() guard.Discipline {
	return &abortDiscipline{w: os.Stderr, exit: os.Exit}
}

type abortDiscipline struct {
	w    io.Writer
	exit func(int)
}

func (d *abortDiscipline) Punish(action string, info *guard.ViolationInfo) {
	fmt.Fprintln(d.w, diagnostic(action, info))
	d.exit(abortExitCode)
}

// WithLogging wraps next so the violation is recorded on logger before the
// punishment fires. The wrapper diverges because next does.
func WithLogging(logger *zap.Logger, next guard.Discipline) guard.Discipline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggingDiscipline{logger: logger, next: next}
}

type loggingDiscipline struct {
	logger *zap.Logger
	next   guard.Discipline
}

func (d *loggingDiscipline) Punish(action string, info *guard.ViolationInfo) {
	fields := []zap.Field{zap.String("action", action)}
	if info != nil {
		fields = append(fields,
			zap.String("op", info.Op),
			zap.String("resource_id", info.ResourceID),
			zap.Int64("visitors", info.Visitors),
		)
	}
	d.logger.Error("punishing sovereignty violation", fields...)
	d.next.Punish(action, info)
}

// Escalate returns a discipline that notifies a supervisor before
// delegating the punishment to next. The notification runs synchronously;
// a supervisor that needs to act after the process dies should persist the
// violation from notify.
func Escalate(notify func(action string, info *guard.ViolationInfo), next guard.Discipline) guard.Discipline {
	return &escalateDiscipline{notify: notify, next: next}
}

type escalateDiscipline struct {
	notify func(action string, info *guard.ViolationInfo)
	next   guard.Discipline
}

func (d *escalateDiscipline) Punish(action string, info *guard.ViolationInfo) {
	if d.notify != nil {
		d.notify(action, info)
	}
	d.next.Punish(action, info)
}

// FromMode maps a configuration mode string to a discipline.
func FromMode(mode string) (guard.Discipline, error) {
	switch mode {
	case "", ModePanic:
		return Panic(), nil
	case ModeAbort:
		return Abort(), nil
	default:
		return nil, fmt.Errorf("unknown discipline mode %q", mode)
	}
}

func diagnostic(action string, info *guard.ViolationInfo) string {
	if info == nil {
		return fmt.Sprintf("sovereignty violation: %s", action)
	}
	if info.Op == "force_kill" {
		return fmt.Sprintf("sovereignty violation: %s: %d lingering visitor(s) inside resource %s",
			action, info.Visitors, info.ResourceID)
	}
	return fmt.Sprintf("sovereignty violation: %s: access after kill on resource %s",
		action, info.ResourceID)
}
