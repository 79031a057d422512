package termsession

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/smash-term/smash/internal/vt"
	"github.com/smash-term/smash/pkg/ptyio"
)

// Registry tracks live sessions by ID and fans dirty notifications out
// to subscribers, each Session keeping its own configured debounce.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	subMu       sync.RWMutex
	subscribers map[string][]func(vt.Snapshot)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		subscribers: make(map[string][]func(vt.Snapshot)),
	}
}

// Create spawns a new Session, registers it, and wires its OnDirty/OnExit
// callbacks to the registry's own fan-out and cleanup.
func (r *Registry) Create(opts Options) (*Session, error) {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	id := opts.ID

	userOnDirty := opts.OnDirty
	userOnExit := opts.OnExit
	opts.OnDirty = func(snap vt.Snapshot) {
		if userOnDirty != nil {
			userOnDirty(snap)
		}
		r.notify(id, snap)
	}
	opts.OnExit = func(code int) {
		if userOnExit != nil {
			userOnExit(code)
		}
		r.remove(id)
	}

	sess, err := New(opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	return sess, nil
}

// Reattach loads the metadata an already-registered Session (in this
// process or another one) persisted under controlDir and wraps it in a
// Session entry so it shows up in Get/List. The wrapper has no PTY
// master of its own: Write is a no-op and Resize falls back to
// signaling the process directly, since only the process that spawned
// the PTY holds its master fd. It errors if the PID named in the
// metadata is no longer running.
func (r *Registry) Reattach(controlDir, id string) (*Session, error) {
	if sess, ok := r.Get(id); ok {
		return sess, nil
	}

	disk, err := loadDiskInfo(controlDir, id)
	if err != nil {
		return nil, err
	}
	if !ptyio.ProcessAlive(disk.PID) {
		return nil, fmt.Errorf("termsession: session %s (pid %d) is no longer running", id, disk.PID)
	}

	cols, rows := disk.Cols, disk.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}

	sess := &Session{
		Info: Info{
			ID:         disk.ID,
			Command:    disk.Command,
			WorkingDir: disk.WorkingDir,
			Term:       disk.Term,
			PID:        disk.PID,
			StartedAt:  disk.StartedAt,
		},
		screen:     vt.NewScreen(cols, rows),
		controlDir: controlDir,
		done:       closedDone,
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	return sess, nil
}

// Get returns the session with the given ID, if live.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns all live sessions sorted by start time, oldest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Info.StartedAt.Before(out[j].Info.StartedAt)
	})
	return out
}

// Subscribe registers fn to be called with every dirty snapshot produced
// by session id, until it exits.
func (r *Registry) Subscribe(id string, fn func(vt.Snapshot)) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subscribers[id] = append(r.subscribers[id], fn)
}

// Kill closes the session's PTY, which unblocks its reader goroutine
// and runs the usual exit/cleanup path. A reattached Session has no
// reader goroutine to run that path, so Kill removes it from the
// registry directly once Close's signal is sent.
func (r *Registry) Kill(id string) error {
	sess, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("termsession: unknown session %s", id)
	}
	if err := sess.Close(); err != nil {
		return err
	}
	if sess.pty == nil {
		r.remove(id)
	}
	return nil
}

func (r *Registry) notify(id string, snap vt.Snapshot) {
	r.subMu.RLock()
	cbs := r.subscribers[id]
	r.subMu.RUnlock()
	for _, cb := range cbs {
		cb(snap)
	}
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	r.subMu.Lock()
	delete(r.subscribers, id)
	r.subMu.Unlock()
}
