package actionlog

import (
	"fmt"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dayLayout       = "2006-01-02"
	fileExt         = ".txt"
)

// Entry is one processed file as the record and its observers see it.
type Entry struct {
	ID         string
	Time       time.Time
	SourcePath string
	DestPath   string
	RuleIndex  int
	Target     string

	PrintErr error
	MoveErr  error

	// Err is set on published entries whose durable append failed.
	Err error
}

// Message is the record line without its timestamp prefix.
func (e Entry) Message() string {
	switch {
	case e.PrintErr == nil && e.MoveErr == nil:
		return printedPrefix + e.SourcePath
	case e.PrintErr != nil && e.MoveErr == nil:
		return fmt.Sprintf("Moved file without printing: %s (print error: %v)", e.SourcePath, e.PrintErr)
	case e.PrintErr == nil:
		return fmt.Sprintf("Printed but failed to move file: %s (move error: %v)", e.SourcePath, e.MoveErr)
	default:
		return fmt.Sprintf(failedPrefix+"%s (print error: %v; move error: %v)", e.SourcePath, e.PrintErr, e.MoveErr)
	}
}

// Line renders the durable record line including the trailing newline.
func (e Entry) Line() string {
	return "[" + e.Time.Format(timestampLayout) + "] " + e.Message() + "\n"
}

func (e Entry) Succeeded() bool {
	return e.PrintErr == nil && e.MoveErr == nil && e.Err == nil
}

// Status summarises how far an entry's pipeline got.
type Status int

const (
	StatusPrinted Status = iota
	StatusPartial
	StatusFailed
)

const (
	printedPrefix = "Printed and moved file: "
	failedPrefix  = "Failed to print and move file: "
)

func (e Entry) Status() Status {
	switch {
	case e.PrintErr == nil && e.MoveErr == nil:
		return StatusPrinted
	case e.PrintErr != nil && e.MoveErr != nil:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// LineStatus classifies a stored record line by its message.
func LineStatus(line string) Status {
	if i := strings.Index(line, "] "); i >= 0 {
		line = line[i+2:]
	}
	switch {
	case strings.HasPrefix(line, printedPrefix):
		return StatusPrinted
	case strings.HasPrefix(line, failedPrefix):
		return StatusFailed
	default:
		return StatusPartial
	}
}

// FileName is the day file an entry stamped at t belongs to.
func FileName(t time.Time) string {
	return t.Format(dayLayout) + fileExt
}

func isDayFileName(name string) bool {
	if len(name) != len(dayLayout)+len(fileExt) || name[len(dayLayout):] != fileExt {
		return false
	}
	_, err := time.Parse(dayLayout, name[:len(dayLayout)])
	return err == nil
}
