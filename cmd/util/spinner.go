package util

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/theckman/yacspin"
)

// Spinner shows the progress of one step at a time. Output that is not a
// terminal gets plain lines.
type Spinner struct {
	spin *yacspin.Spinner
}

func NewSpinner(w io.Writer) (*Spinner, error) {
	spin, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		Writer:            w,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " ",
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
		NotTTY:            !isTerminal(w),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create spinner")
	}
	return &Spinner{spin: spin}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Step starts spinning with msg.
func (s *Spinner) Step(msg string) {
	s.spin.Message(msg)
	_ = s.spin.Start()
}

// Success stops the current step with a check mark.
func (s *Spinner) Success(msg string) {
	s.spin.StopMessage(msg)
	_ = s.spin.Stop()
}

// Fail stops the current step with a cross.
func (s *Spinner) Fail(msg string) {
	s.spin.StopFailMessage(msg)
	_ = s.spin.StopFail()
}
