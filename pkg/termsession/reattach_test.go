package termsession

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smash-term/smash/internal/vt"
)

func TestPersistAndLoadInfoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sess := &Session{
		Info: Info{
			ID:         "11111111-1111-1111-1111-111111111111",
			Command:    []string{"/bin/sh", "-c", "true"},
			WorkingDir: "/tmp",
			Term:       "xterm-256color",
			PID:        os.Getpid(),
			StartedAt:  time.Now(),
		},
		screen:     vt.NewScreen(80, 24),
		controlDir: dir,
	}

	if err := sess.persist("running", 0); err != nil {
		t.Fatalf("persist: %v", err)
	}

	path := filepath.Join(dir, sess.Info.ID, "session.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected session.json at %s: %v", path, err)
	}

	info, err := LoadInfo(dir, sess.Info.ID)
	if err != nil {
		t.Fatalf("LoadInfo: %v", err)
	}
	if info.ID != sess.Info.ID || info.PID != sess.Info.PID || info.Term != sess.Info.Term {
		t.Fatalf("loaded info = %+v, want to match %+v", info, sess.Info)
	}
}

func TestReattachWrapsLiveProcess(t *testing.T) {
	dir := t.TempDir()
	sess := &Session{
		Info: Info{
			ID:         "22222222-2222-2222-2222-222222222222",
			Command:    []string{"/bin/sh"},
			WorkingDir: "/tmp",
			PID:        os.Getpid(),
			StartedAt:  time.Now(),
		},
		screen:     vt.NewScreen(80, 24),
		controlDir: dir,
	}
	if err := sess.persist("running", 0); err != nil {
		t.Fatalf("persist: %v", err)
	}

	r := NewRegistry()
	reattached, err := r.Reattach(dir, sess.Info.ID)
	if err != nil {
		t.Fatalf("Reattach: %v", err)
	}
	if reattached.Info.ID != sess.Info.ID {
		t.Fatalf("reattached id = %q, want %q", reattached.Info.ID, sess.Info.ID)
	}
	if got, ok := r.Get(sess.Info.ID); !ok || got != reattached {
		t.Fatalf("expected Reattach to register the session in the registry")
	}

	select {
	case <-reattached.Done():
	default:
		t.Fatal("expected a reattached session's Done channel to already be closed")
	}

	// A detached session has no input channel or live PTY: Write is a
	// silent no-op rather than a block or panic.
	reattached.Write([]byte("hello"))
}

func TestReattachRejectsDeadProcess(t *testing.T) {
	dir := t.TempDir()
	sess := &Session{
		Info: Info{
			ID:  "33333333-3333-3333-3333-333333333333",
			PID: 1 << 30, // implausible PID, assumed not running
		},
		screen:     vt.NewScreen(80, 24),
		controlDir: dir,
	}
	if err := sess.persist("running", 0); err != nil {
		t.Fatalf("persist: %v", err)
	}

	r := NewRegistry()
	if _, err := r.Reattach(dir, sess.Info.ID); err == nil {
		t.Fatal("expected Reattach to reject a session whose PID is not running")
	}
}

func TestReattachReturnsExistingSession(t *testing.T) {
	r := NewRegistry()
	live := &Session{Info: Info{ID: "44444444-4444-4444-4444-444444444444"}, done: make(chan struct{})}
	r.mu.Lock()
	r.sessions[live.Info.ID] = live
	r.mu.Unlock()

	got, err := r.Reattach(t.TempDir(), live.Info.ID)
	if err != nil {
		t.Fatalf("Reattach: %v", err)
	}
	if got != live {
		t.Fatal("expected Reattach to return the already-registered session rather than reload it")
	}
}
