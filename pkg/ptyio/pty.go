// Package ptyio spawns a child process attached to a pseudo-terminal and
// exposes it as a plain io.ReadWriteCloser plus resize/wait operations.
// It is the only package in this module that touches creack/pty;
// everything above it talks in terms of the PTY interface, apart from
// termsession signaling a recorded PID for sessions it does not own.
package ptyio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// PTY is a running child process attached to a pseudo-terminal master.
type PTY interface {
	io.ReadWriteCloser
	Resize(cols, rows int) error
	Pid() int
	// Wait blocks until the child exits and returns its exit code.
	Wait() (int, error)
}

type procPTY struct {
	master *os.File
	cmd    *exec.Cmd
}

// Spawn starts command (argv[0] is the executable) attached to a new
// PTY sized cols x rows, with the given working directory and the
// current environment plus the given TERM value.
func Spawn(command []string, workingDir string, term string, cols, rows int) (PTY, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("ptyio: command cannot be empty")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), fmt.Sprintf("TERM=%s", term))

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("ptyio: start: %w", err)
	}

	return &procPTY{master: master, cmd: cmd}, nil
}

// Read reads child output. A closed PTY master surfaces as io.EOF: on
// Linux, reading from a master whose slave side has no more writers
// yields EIO rather than a zero-byte read, so that is translated here
// and nowhere else in the module.
func (p *procPTY) Read(buf []byte) (int, error) {
	n, err := p.master.Read(buf)
	if err != nil && isEIO(err) {
		return n, io.EOF
	}
	return n, err
}

func (p *procPTY) Write(buf []byte) (int, error) { return p.master.Write(buf) }

func (p *procPTY) Close() error { return p.master.Close() }

func (p *procPTY) Resize(cols, rows int) error {
	return pty.Setsize(p.master, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

func (p *procPTY) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *procPTY) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus(), nil
		}
	}
	return -1, err
}

func isEIO(err error) bool {
	return errors.Is(err, syscall.EIO)
}

// Signal sends signal sig to the child, following up with SIGKILL if it
// has not exited within the grace period. It polls rather than Wait-ing
// itself, since the real exit status is collected exactly once by
// whoever called Wait on this PTY.
func Signal(p PTY, sig os.Signal, grace time.Duration) error {
	pp, ok := p.(*procPTY)
	if !ok || pp.cmd.Process == nil {
		return fmt.Errorf("ptyio: process not running")
	}
	if err := pp.cmd.Process.Signal(sig); err != nil {
		return err
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !ProcessAlive(pp.cmd.Process.Pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	if ProcessAlive(pp.cmd.Process.Pid) {
		return pp.cmd.Process.Kill()
	}
	return nil
}

// ProcessAlive reports whether pid still refers to a running process,
// probed with the null signal rather than by waiting on it.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
