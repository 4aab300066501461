package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/schema"
)

const (
	promptMain = "sqlra> "
	promptMore = "  ...> "
)

const helpText = `Enter a SELECT statement ending with ';' (or an empty line) to translate it.
Commands:
  \trace         toggle derivation steps
  \check <sql>   validate only
  \schema        list tables and columns
  \help          show this help
  \q             quit
`

// Session translates statements typed at the prompt against one schema.
// Statements may span several lines; a line ending in ';' or an empty
// line submits the buffered text.
type Session struct {
	translator *pipeline.Translator
	schema     *schema.Schema
	out        io.Writer
	trace      bool
	buf        []string
}

// NewSession creates a Session writing results to out.
func NewSession(t *pipeline.Translator, s *schema.Schema, out io.Writer) *Session {
	return &Session{translator: t, schema: s, out: out}
}

// Prompt implements Consumer.
func (s *Session) Prompt() string {
	if len(s.buf) > 0 {
		return promptMore
	}
	return promptMain
}

// Consume implements Consumer. It returns true when the session should end.
func (s *Session) Consume(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(s.buf) == 0 && strings.HasPrefix(trimmed, `\`) {
		return s.command(trimmed)
	}
	if trimmed == "" {
		if len(s.buf) > 0 {
			s.submit()
		}
		return false
	}
	s.buf = append(s.buf, line)
	if strings.HasSuffix(trimmed, ";") {
		s.submit()
	}
	return false
}

func (s *Session) submit() {
	sql := strings.Join(s.buf, "\n")
	s.buf = s.buf[:0]
	s.print(s.translator.Translate(pipeline.Request{Schema: s.schema, SQL: sql, Trace: s.trace}))
}

func (s *Session) command(cmd string) bool {
	name, arg, _ := strings.Cut(cmd, " ")
	switch name {
	case `\q`, `\quit`:
		return true
	case `\trace`:
		s.trace = !s.trace
		state := "off"
		if s.trace {
			state = "on"
		}
		fmt.Fprintf(s.out, "trace %s\n", state)
	case `\check`:
		if strings.TrimSpace(arg) == "" {
			fmt.Fprintln(s.out, `usage: \check <sql>`)
			break
		}
		s.print(s.translator.Check(pipeline.Request{Schema: s.schema, SQL: arg}))
	case `\schema`:
		for _, t := range s.schema.Tables {
			cols := make([]string, 0, len(t.Columns))
			for _, c := range t.Columns {
				col := c.Name + " " + c.Type
				if c.PrimaryKey {
					col += " pk"
				}
				cols = append(cols, col)
			}
			fmt.Fprintf(s.out, "%s(%s)\n", t.Name, strings.Join(cols, ", "))
		}
	case `\help`, `\?`:
		io.WriteString(s.out, helpText)
	default:
		fmt.Fprintf(s.out, "unknown command %s (try \\help)\n", name)
	}
	return false
}

func (s *Session) print(resp *pipeline.Response) {
	for _, d := range resp.Diagnostics {
		switch d.Severity {
		case diag.SeverityError:
			fmt.Fprintf(s.out, "✗ %s\n", d)
		case diag.SeverityWarning:
			fmt.Fprintf(s.out, "! %s\n", d.Message)
		}
	}
	if !resp.Valid {
		return
	}
	for _, step := range resp.Steps {
		fmt.Fprintf(s.out, "  %s\n", step)
	}
	if resp.AR != "" {
		fmt.Fprintln(s.out, resp.AR)
		return
	}
	fmt.Fprintf(s.out, "✓ %s\n", pipeline.MsgValid)
}
