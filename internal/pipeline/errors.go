package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrDispatch = errors.New("print submission failed")
	ErrRelocate = errors.New("relocation failed")
	ErrRecord   = errors.New("record write failed")
	ErrSkipped  = errors.New("step skipped")
)

type Step string

const (
	StepDispatch Step = "dispatch"
	StepRelocate Step = "relocate"
	StepRecord   Step = "record"
)

func (s Step) sentinel() error {
	switch s {
	case StepDispatch:
		return ErrDispatch
	case StepRelocate:
		return ErrRelocate
	case StepRecord:
		return ErrRecord
	default:
		return nil
	}
}

// StepError is the failure of one pipeline step for one file. It matches
// the step's sentinel (ErrDispatch, ErrRelocate, ErrRecord) as well as the
// underlying cause.
type StepError struct {
	Step Step
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() []error {
	if sentinel := e.Step.sentinel(); sentinel != nil {
		return []error{sentinel, e.Err}
	}
	return []error{e.Err}
}
