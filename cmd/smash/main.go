// Command smash spawns a command in a PTY and drives it interactively
// from the local terminal, painting through the core's own Screen and
// Parser rather than replaying a recorded stream.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smash-term/smash/internal/vt"
	"github.com/smash-term/smash/pkg/config"
	"github.com/smash-term/smash/pkg/paint"
	"github.com/smash-term/smash/pkg/termsession"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smash -- <command> [args...]",
	Short: "Run a command attached to a local pseudo-terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	if err := os.MkdirAll(cfg.ControlDir, 0755); err != nil {
		return fmt.Errorf("failed to create control directory: %v", err)
	}

	cols, rows := terminalSize()

	painter := paint.NewAnsiPainter(os.Stdout)

	sess, err := termsession.New(termsession.Options{
		Command:      args,
		WorkingDir:   cwd,
		Term:         envOr("TERM", cfg.DefaultTerm),
		Cols:         cols,
		Rows:         rows,
		RepaintDelay: cfg.RepaintDelay(),
		ControlDir:   cfg.ControlDir,
		OnDirty: func(snap vt.Snapshot) {
			if err := painter.Paint(snap); err != nil {
				fmt.Fprintf(os.Stderr, "paint error: %v\n", err)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}

	var oldState *term.State
	if term.IsTerminal(int(os.Stdin.Fd())) {
		oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %v", err)
		}
		defer term.Restore(int(os.Stdin.Fd()), oldState)
	}

	go pumpStdin(sess)
	watchResize(sess)

	<-sess.Done()
	return nil
}

func pumpStdin(sess *termsession.Session) {
	buf := make([]byte, 1024)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			sess.Write(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "stdin read error: %v\n", err)
			}
			return
		}
	}
}

// watchResize relays SIGWINCH to the session so the child's PTY follows
// the local terminal size.
func watchResize(sess *termsession.Session) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	go func() {
		for range sigCh {
			cols, rows := terminalSize()
			sess.Resize(cols, rows)
		}
	}()
}

func terminalSize() (int, int) {
	cols, rows := 80, 24
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			cols, rows = w, h
		}
	}
	return cols, rows
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
