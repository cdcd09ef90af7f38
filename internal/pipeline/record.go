package pipeline

import (
	"errors"
	"time"

	"printwatch/internal/actionlog"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type StepOutcome struct {
	Step   Step
	Status Status
	Err    error
}

func (o StepOutcome) Attempted() bool {
	return o.Status == StatusOK || o.Status == StatusFailed
}

// cause is the error text a record line shows for the step.
func (o StepOutcome) cause() error {
	var stepErr *StepError
	if o.Err == nil {
		return nil
	}
	if errors.As(o.Err, &stepErr) {
		return stepErr.Err
	}
	return o.Err
}

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
)

// ActionRecord describes what happened to one matched file.
type ActionRecord struct {
	ID         string
	Time       time.Time
	SourcePath string
	DestPath   string
	RuleIndex  int
	Target     string

	Dispatch StepOutcome
	Relocate StepOutcome
	Record   StepOutcome
}

func (r ActionRecord) Outcome() Outcome {
	steps := []StepOutcome{r.Dispatch, r.Relocate, r.Record}
	ok, attempted := 0, 0
	for _, s := range steps {
		if s.Attempted() {
			attempted++
		}
		if s.Status == StatusOK {
			ok++
		}
	}
	switch {
	case attempted == 0:
		return OutcomeAbandoned
	case ok == len(steps):
		return OutcomeSuccess
	case r.Dispatch.Status != StatusOK && r.Relocate.Status != StatusOK:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// Entry converts the record into its durable record form.
func (r ActionRecord) Entry() actionlog.Entry {
	return actionlog.Entry{
		ID:         r.ID,
		Time:       r.Time,
		SourcePath: r.SourcePath,
		DestPath:   r.DestPath,
		RuleIndex:  r.RuleIndex,
		Target:     r.Target,
		PrintErr:   r.Dispatch.cause(),
		MoveErr:    r.Relocate.cause(),
	}
}

// Err joins the step errors, or returns nil when every attempted step
// succeeded.
func (r ActionRecord) Err() error {
	var errs []error
	for _, s := range []StepOutcome{r.Dispatch, r.Relocate, r.Record} {
		if s.Status == StatusFailed && s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}
