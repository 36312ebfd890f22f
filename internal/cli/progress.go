package cli

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// RunWithSpinner runs fn while a spinner with message is shown on stderr.
// Quiet mode, or a stderr that is not a terminal, shows nothing.
func RunWithSpinner(quiet bool, message string, fn func() error) error {
	if quiet {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()
	return fn()
}
