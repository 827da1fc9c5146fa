// Package chat is the terminal front end: a line-oriented tutoring session
// with streamed answers.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ai9campus/smarttutor/internal/curriculum"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

const helpText = `**Commands**

- ` + "`/samples`" + ` show sample questions
- ` + "`/tips`" + ` show SSC exam tips
- ` + "`/about`" + ` show curriculum information
- ` + "`/notes`" + ` show important notes
- ` + "`/chapter <class> <medium> <chapter> <subject>`" + ` look up a chapter title
- ` + "`/reset`" + ` start a new conversation
- ` + "`/help`" + ` show this help
- ` + "`/quit`" + ` leave`

// LineReader reads one line of input. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

type Config struct {
	Controller *tutor.Controller
	Index      *curriculum.Index
	Out        io.Writer
	// Style is a glamour style name; empty means detect from the terminal.
	Style  string
	Width  int
	Logger *slog.Logger
}

type REPL struct {
	ctrl   *tutor.Controller
	index  *curriculum.Index
	out    io.Writer
	render *renderer
	logger *slog.Logger
}

func New(cfg Config) (*REPL, error) {
	width := cfg.Width
	if width <= 0 {
		width = 80
	}
	r, err := newRenderer(cfg.Style, width)
	if err != nil {
		return nil, err
	}
	return &REPL{
		ctrl:   cfg.Controller,
		index:  cfg.Index,
		out:    cfg.Out,
		render: r,
		logger: cfg.Logger,
	}, nil
}

// NewTerminalReader opens an interactive line editor with history.
func NewTerminalReader(historyFile string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          promptStyle.Render("You ▸ "),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
}

// Run reads lines until /quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context, in LineReader) error {
	defer in.Close()

	r.showWelcome()
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if quit := r.Handle(ctx, line); quit {
			return nil
		}
	}
}

// Handle processes one line of input and reports whether the session should
// end.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.ask(ctx, line)
		return false
	}

	cmd, args, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		fmt.Fprintln(r.out, dimStyle.Render("Goodbye! Keep learning. 🎓"))
		return true
	case "/reset":
		if err := r.ctrl.Reset(ctx); err != nil {
			fmt.Fprint(r.out, r.render.notice(tutor.BusyNotice()))
			return false
		}
		r.showWelcome()
	case "/samples":
		r.showPanel(tutor.PanelSamples)
	case "/tips":
		r.showPanel(tutor.PanelExamTips)
	case "/about":
		r.showPanel(tutor.PanelCurriculum)
	case "/notes":
		r.showPanel(tutor.PanelNotes)
		fmt.Fprintln(r.out, dimStyle.Render(tutor.Footer))
	case "/help":
		fmt.Fprint(r.out, r.render.markdown(helpText))
		r.showPanel(tutor.PanelContact)
	case "/chapter":
		r.chapter(strings.Fields(args))
	default:
		fmt.Fprint(r.out, r.render.notice(tutor.Notice{
			Level:  tutor.LevelInfo,
			Kind:   "unknown_command",
			Title:  "Unknown command " + cmd,
			Detail: "Type /help to see what you can do.",
		}))
	}
	return false
}

func (r *REPL) showWelcome() {
	if r.ctrl.WelcomePending() {
		r.showPanel(tutor.PanelWelcome)
	}
}

func (r *REPL) showPanel(id string) {
	if p, ok := tutor.PanelByID(id); ok {
		fmt.Fprint(r.out, r.render.panel(p))
	}
}

func (r *REPL) ask(ctx context.Context, text string) {
	fmt.Fprint(r.out, tutorStyle.Render("Tutor ▸ "))
	p := &streamPrinter{out: r.out, render: r.render}
	out := r.ctrl.Submit(ctx, text, p)
	if out.Status == tutor.StatusCompleted {
		fmt.Fprintln(r.out)
	}
	r.logger.Debug("turn finished", "status", out.Status)
}

func (r *REPL) chapter(args []string) {
	if len(args) < 4 {
		fmt.Fprint(r.out, r.render.notice(tutor.Notice{
			Level:  tutor.LevelInfo,
			Kind:   "usage",
			Title:  "Usage: /chapter <class> <medium> <chapter> <subject>",
			Detail: "Example: /chapter 10 English 1 Social Studies",
		}))
		return
	}
	subject := strings.Join(args[3:], " ")
	title, ok := r.index.LookupText(args[0], subject, args[1], args[2])
	if !ok {
		fmt.Fprintf(r.out, "Class %s %s (%s medium) chapter %s is not in my chapter list. Please check your textbook index.\n",
			args[0], subject, args[1], args[2])
		return
	}
	fmt.Fprintf(r.out, "Class %s %s (%s medium) chapter %s: %s\n", args[0], subject, args[1], args[2], title)
}

// streamPrinter writes only the newly arrived part of each partial reply.
type streamPrinter struct {
	out     io.Writer
	render  *renderer
	printed int
}

func (p *streamPrinter) Progress(partial string) {
	if len(partial) > p.printed {
		io.WriteString(p.out, partial[p.printed:])
		p.printed = len(partial)
	}
}

func (p *streamPrinter) Notify(n tutor.Notice) {
	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, p.render.notice(n))
}

var _ LineReader = (*readline.Instance)(nil)
