// Package repl is a simple read-eval-print loop. It calls the Consumer
// to do all the eval work.
package repl

import (
	"errors"
	"io"

	"github.com/peterh/liner"
)

type Consumer interface {
	Consume(line string) bool
	Prompt() string
}

// Run executes the REPL until the consumer asks to stop or input ends.
// End of input (Ctrl-D) is not an error.
func Run(c Consumer) error {
	l := liner.NewLiner()
	defer l.Close()
	l.SetMultiLineMode(true)
	l.SetCtrlCAborts(true)
	for {
		line, err := l.Prompt(c.Prompt())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.Consume(line) {
			return nil
		}
		l.AppendHistory(line)
	}
}
