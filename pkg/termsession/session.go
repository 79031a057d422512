// Package termsession owns the concurrency envelope coupling a running
// PTY to a Screen: a reader goroutine parsing output, a writer goroutine
// draining translated key bytes, and debounced dirty notification.
package termsession

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/smash-term/smash/internal/vt"
	"github.com/smash-term/smash/pkg/ptyio"
)

// closedDone is shared by every reattached (detached) Session: there is
// no reader goroutine to close a per-session channel when one exits, so
// Done() reports immediately rather than hanging forever.
var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Info is the immutable metadata recorded when a session is created.
type Info struct {
	ID         string
	Command    []string
	WorkingDir string
	Term       string
	PID        int
	StartedAt  time.Time
}

// Session couples one running PTY to one Screen. The reader goroutine is
// the sole mutator of Screen's cells and cursor (Resize changes only its
// Width/Height, under the lock); Snapshot is the only way anything else
// observes it.
//
// A Session reattached from an on-disk control directory (see Reattach)
// has a nil pty and input: it reflects another process's session
// metadata rather than owning the PTY master itself, so Write is a
// no-op and Resize/Close fall back to signaling the recorded PID.
type Session struct {
	Info Info

	pty     ptyio.PTY
	screen  *vt.Screen
	scanner *vt.ByteScanner
	parser  *vt.Parser

	input      chan []byte
	controlDir string

	dirtyPending atomic.Bool
	repaintDelay time.Duration
	onDirty      func(vt.Snapshot)
	onExit       func(exitCode int)

	done chan struct{}
}

// Options configures a new Session.
type Options struct {
	// ID overrides the generated session ID. Left empty, New generates
	// one; the Registry sets this explicitly so its OnDirty/OnExit
	// callbacks can close over an immutable ID rather than the Session
	// pointer New is still in the middle of constructing.
	ID           string
	Command      []string
	WorkingDir   string
	Term         string
	Cols, Rows   int
	RepaintDelay time.Duration
	OnDirty      func(vt.Snapshot)
	OnExit       func(exitCode int)

	// ControlDir, if set, makes New persist the session's metadata to
	// <ControlDir>/<id>/session.json so a DirWatcher in another process
	// (or a later Reattach in this one) can find it.
	ControlDir string
}

// New spawns command in a PTY and starts the reader/writer goroutines.
// It returns once the child has started; the reader runs until the child
// exits or Close is called, and the writer until a PTY write fails.
func New(opts Options) (*Session, error) {
	if opts.Cols == 0 {
		opts.Cols = 80
	}
	if opts.Rows == 0 {
		opts.Rows = 24
	}
	if opts.Term == "" {
		opts.Term = "xterm-256color"
	}
	if opts.RepaintDelay <= 0 {
		opts.RepaintDelay = 10 * time.Millisecond
	}

	p, err := ptyio.Spawn(opts.Command, opts.WorkingDir, opts.Term, opts.Cols, opts.Rows)
	if err != nil {
		return nil, fmt.Errorf("termsession: %w", err)
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}

	screen := vt.NewScreen(opts.Cols, opts.Rows)
	sess := &Session{
		Info: Info{
			ID:         id,
			Command:    opts.Command,
			WorkingDir: opts.WorkingDir,
			Term:       opts.Term,
			PID:        p.Pid(),
			StartedAt:  time.Now(),
		},
		pty:          p,
		screen:       screen,
		input:        make(chan []byte, 256),
		controlDir:   opts.ControlDir,
		repaintDelay: opts.RepaintDelay,
		onDirty:      opts.OnDirty,
		onExit:       opts.OnExit,
		done:         make(chan struct{}),
	}
	sess.scanner = vt.NewByteScanner()
	sess.parser = vt.NewParser(sess.scanner, screen)
	sess.parser.Reply = sess.writeReply

	if sess.controlDir != "" {
		if err := sess.persist("running", 0); err != nil {
			log.Printf("termsession: failed to persist session metadata for %s: %v", sess.Info.ID, err)
		}
	}

	go sess.readLoop()
	go sess.writeLoop()

	return sess, nil
}

// diskInfo is the on-disk shape of a session's control-directory
// metadata file, written atomically via a temp file plus rename.
type diskInfo struct {
	ID         string    `json:"id"`
	Command    []string  `json:"command"`
	WorkingDir string    `json:"workingDir"`
	Term       string    `json:"term"`
	PID        int       `json:"pid"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"startedAt"`
	Status     string    `json:"status"`
	ExitCode   int       `json:"exitCode,omitempty"`
}

func (s *Session) persist(status string, exitCode int) error {
	snap := s.Snapshot()
	info := diskInfo{
		ID:         s.Info.ID,
		Command:    s.Info.Command,
		WorkingDir: s.Info.WorkingDir,
		Term:       s.Info.Term,
		PID:        s.Info.PID,
		Cols:       snap.Width,
		Rows:       snap.Height,
		StartedAt:  s.Info.StartedAt,
		Status:     status,
		ExitCode:   exitCode,
	}

	sessionDir := filepath.Join(s.controlDir, s.Info.ID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	infoPath := filepath.Join(sessionDir, "session.json")
	tempPath := infoPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, infoPath)
}

func loadDiskInfo(controlDir, id string) (diskInfo, error) {
	data, err := os.ReadFile(filepath.Join(controlDir, id, "session.json"))
	if err != nil {
		return diskInfo{}, fmt.Errorf("termsession: load session info for %s: %w", id, err)
	}
	var disk diskInfo
	if err := json.Unmarshal(data, &disk); err != nil {
		return diskInfo{}, fmt.Errorf("termsession: parse session info for %s: %w", id, err)
	}
	return disk, nil
}

// LoadInfo reads back the metadata a running Session persisted to its
// control directory, without requiring the process that owns the PTY.
func LoadInfo(controlDir, id string) (Info, error) {
	disk, err := loadDiskInfo(controlDir, id)
	if err != nil {
		return Info{}, err
	}
	return Info{
		ID:         disk.ID,
		Command:    disk.Command,
		WorkingDir: disk.WorkingDir,
		Term:       disk.Term,
		PID:        disk.PID,
		StartedAt:  disk.StartedAt,
	}, nil
}

// Snapshot returns a consistent copy of the screen state.
func (s *Session) Snapshot() vt.Snapshot { return s.screen.Snapshot() }

// Write enqueues translated key bytes for the writer goroutine. It does
// not block: a full channel drops the write rather than stall the
// caller on a wedged child process.
func (s *Session) Write(b []byte) {
	if len(b) == 0 {
		return
	}
	if s.input == nil {
		log.Printf("termsession: %s is detached, no input channel to write to", s.Info.ID)
		return
	}
	select {
	case s.input <- b:
	default:
		log.Printf("termsession: input channel full, dropping %d bytes for %s", len(b), s.Info.ID)
	}
}

// Resize changes both the PTY window size and the Screen's notion of
// its own width/height. A detached Session (see Reattach) has no PTY
// master to resize directly, so it only signals SIGWINCH to the
// process by PID, the same best-effort fallback the reference control
// protocol uses when no live control channel is available.
func (s *Session) Resize(cols, rows int) error {
	if s.pty != nil {
		if err := s.pty.Resize(cols, rows); err != nil {
			return err
		}
	} else if !ptyio.ProcessAlive(s.Info.PID) {
		return fmt.Errorf("termsession: %s is no longer running", s.Info.ID)
	} else if err := signalWinch(s.Info.PID); err != nil {
		return err
	}

	s.screen.Lock()
	s.screen.Width = cols
	s.screen.Height = rows
	s.screen.Unlock()

	if s.controlDir != "" {
		if err := s.persist("running", 0); err != nil {
			log.Printf("termsession: failed to persist resize for %s: %v", s.Info.ID, err)
		}
	}
	return nil
}

// Close closes the PTY master, unblocking the reader goroutine with
// EOF. A detached Session (see Reattach) has no master to close, so
// this sends SIGTERM to the recorded PID instead, the same signal the
// reference control protocol's kill fallback sends when there is no
// live control channel to request a clean shutdown through.
func (s *Session) Close() error {
	if s.pty != nil {
		return s.pty.Close()
	}
	if !ptyio.ProcessAlive(s.Info.PID) {
		return nil
	}
	proc, err := os.FindProcess(s.Info.PID)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}

// Done reports completion of the session (child exited, or Close was
// called and the reader observed EOF).
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) writeReply(b []byte) {
	s.Write(b)
}

func (s *Session) readLoop() {
	for {
		more, err := s.scanner.Refill(s.pty)
		if err != nil {
			log.Printf("termsession: pty read error for %s: %v", s.Info.ID, err)
			break
		}
		if !more {
			break
		}

		s.screen.Lock()
		s.parser.Run()
		s.screen.Unlock()

		s.markDirty()
	}

	s.screen.Lock()
	s.screen.Trim()
	s.screen.Unlock()
	s.markDirty()

	code, _ := s.pty.Wait()
	if s.controlDir != "" {
		if err := s.persist("exited", code); err != nil {
			log.Printf("termsession: failed to persist exit status for %s: %v", s.Info.ID, err)
		}
	}
	close(s.done)
	if s.onExit != nil {
		s.onExit(code)
	}
}

func (s *Session) writeLoop() {
	for b := range s.input {
		if _, err := s.pty.Write(b); err != nil {
			return
		}
	}
}

func signalWinch(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGWINCH)
}

// markDirty implements the CAS-coalesced repaint schedule: of
// arbitrarily many calls within one repaint window, only the first
// schedules a timer, and the timer clears the flag before invoking the
// callback so a write arriving during the callback schedules the next
// one.
func (s *Session) markDirty() {
	if !s.dirtyPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(s.repaintDelay, func() {
		s.dirtyPending.Store(false)
		if s.onDirty != nil {
			s.onDirty(s.Snapshot())
		}
	})
}
