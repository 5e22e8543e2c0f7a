// Package app runs the interactive jobboard screen in a terminal.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gsarma/jobboard/internal/jobs"
	"github.com/gsarma/jobboard/internal/session"
	"github.com/gsarma/jobboard/internal/view"
)

// App reads single-letter commands and re-renders after every session change.
type App struct {
	ctrl *session.Controller
	in   io.Reader
	out  io.Writer
}

func New(ctrl *session.Controller, in io.Reader, out io.Writer) *App {
	return &App{ctrl: ctrl, in: in, out: out}
}

// Run restores any cached session and processes commands until the user
// quits, input ends or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	unsubscribe := a.ctrl.Subscribe(func(s session.Snapshot) {
		_ = view.Render(a.out, s)
	})
	defer unsubscribe()

	a.ctrl.CheckStoredUser(ctx)

	stop := make(chan struct{})
	defer close(stop)
	lines, readErr := a.readLines(stop)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if quit := a.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// readLines feeds input lines to the returned channel until input ends or
// stop is closed. A read blocked on the terminal outlives Run; it is
// abandoned rather than interrupted.
func (a *App) readLines(stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

func (a *App) handle(ctx context.Context, cmd string) (quit bool) {
	snap := a.ctrl.Snapshot()
	signedIn := snap.State == session.Authenticated

	switch {
	case cmd == "q":
		return true
	case cmd == "s" && snap.State == session.Unauthenticated:
		// Failures are reported through the controller's notifier.
		_ = a.ctrl.SignIn(ctx)
	case cmd == "l" && signedIn:
		_ = a.ctrl.Logout(ctx)
	case cmd == "b" && signedIn && snap.SelectedJob != nil:
		a.ctrl.ClearSelection()
	case signedIn && snap.SelectedJob == nil && cmd != "":
		a.selectByNumber(cmd)
	case cmd == "":
		_ = view.Render(a.out, snap)
	default:
		fmt.Fprintf(a.out, "Unknown command %q.\n", cmd)
	}
	return false
}

func (a *App) selectByNumber(cmd string) {
	all := jobs.All()
	n, err := strconv.Atoi(cmd)
	if err != nil || n < 1 || n > len(all) {
		fmt.Fprintf(a.out, "Choose a job between 1 and %d.\n", len(all))
		return
	}
	if err := a.ctrl.SelectJob(all[n-1].ID); err != nil {
		fmt.Fprintf(a.out, "Cannot open job: %v\n", err)
	}
}
