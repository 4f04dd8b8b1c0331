package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/youi/backend/internal/models"
)

const helpText = `Type anything to search, or:
  /open N   open card N and record it in history
  /like N   like the video on card N
  /sub N    subscribe to the channel of card N
  /grid     show the current grid again
  /help     show this help
  /quit     leave`

// REPL drives a Session from line-oriented input.
type REPL struct {
	session *Session
	in      io.Reader
	out     io.Writer
	shown   int
}

// NewREPL returns a REPL reading commands from in and writing to out.
func NewREPL(session *Session, in io.Reader, out io.Writer) *REPL {
	return &REPL{session: session, in: in, out: out}
}

// Run processes input until EOF, /quit, or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.flush()

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			r.session.Submit(ctx, line)
			r.flush()
			continue
		}

		if quit := r.command(ctx, line); quit {
			return nil
		}
	}
}

func (r *REPL) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
		return false
	case "/grid":
		r.printGrid()
		return false
	case "/open", "/like", "/sub":
	default:
		fmt.Fprintf(r.out, "unknown command %s, try /help\n", name)
		return false
	}

	if len(fields) < 2 {
		fmt.Fprintf(r.out, "usage: %s N\n", name)
		return false
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Fprintf(r.out, "usage: %s N\n", name)
		return false
	}

	switch name {
	case "/open":
		url, err := r.session.Open(ctx, index)
		if err != nil {
			r.printErr(err)
			return false
		}
		fmt.Fprintln(r.out, "▶ "+url)
	case "/like":
		if _, err := r.session.Like(ctx, index); err != nil {
			r.printErr(err)
			return false
		}
		r.flush()
	case "/sub":
		if _, err := r.session.Subscribe(ctx, index); err != nil {
			r.printErr(err)
			return false
		}
		r.flush()
	}
	return false
}

// flush prints transcript messages not yet shown.
func (r *REPL) flush() {
	messages := r.session.Messages()
	for _, m := range messages[r.shown:] {
		if m.Sender == models.SenderUser {
			continue
		}
		fmt.Fprintln(r.out, m.Text)
		if m.Items > 0 {
			r.printGrid()
		}
	}
	r.shown = len(messages)
}

func (r *REPL) printGrid() {
	grid := r.session.Grid()
	if len(grid) == 0 {
		fmt.Fprintln(r.out, "(no results)")
		return
	}
	for i, card := range grid {
		fmt.Fprintln(r.out, formatCard(i+1, card))
	}
}

func (r *REPL) printErr(err error) {
	switch {
	case errors.Is(err, ErrNoSuchCard):
		fmt.Fprintf(r.out, "no card with that number, the grid has %d\n", len(r.session.Grid()))
	default:
		fmt.Fprintln(r.out, "error: "+err.Error())
	}
}

func formatCard(n int, c Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%2d. %s", n, c.Title)
	if c.Channel != "" && c.Channel != c.Title {
		b.WriteString(" · " + c.Channel)
	}
	if c.Liked {
		b.WriteString(" [👍 liked]")
	}
	if c.Subscribed {
		b.WriteString(" [🔔 subscribed]")
	}
	if c.Thumbnail != "" {
		b.WriteString("\n    " + c.Thumbnail)
	}
	return b.String()
}
