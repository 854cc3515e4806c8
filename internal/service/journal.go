package service

import (
	"fmt"
	"strings"
)

// Recorder accumulates a human-readable run report that is attached to
// the run record as a journal entry when the run finishes.
type Recorder struct {
	lines []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Section starts a new titled block in the report.
func (r *Recorder) Section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	r.lines = append(r.lines, "### "+title)
}

// Itemf appends one formatted bullet to the current section.
func (r *Recorder) Itemf(format string, args ...any) {
	r.lines = append(r.lines, "- "+fmt.Sprintf(format, args...))
}

func (r *Recorder) Empty() bool {
	return len(r.lines) == 0
}

func (r *Recorder) String() string {
	return strings.Join(r.lines, "\n")
}
