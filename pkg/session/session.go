// Package session holds one open family tree together with the layout
// engine and the repository it was loaded from.
//
// A Session is the unit both front-ends work on: the CLI opens one per
// command, the HTTP server keeps one for its lifetime. Every access goes
// through [Session.Do] or [Session.View], which serialize callers so the
// store only ever has a single mutator.
//
// # Usage
//
//	sess, report, err := session.Open(ctx, "family.db")
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	err = sess.Do(func(s *tree.Store) error {
//	    _, err := s.AddPerson(tree.Person{Name: "Ren"})
//	    return err
//	})
//	if err == nil {
//	    err = sess.Save(ctx)
//	}
package session

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/storage"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Session is an open tree. The exported fields must not be used while
// another goroutine may call Do or View.
type Session struct {
	Store      *tree.Store
	Engine     *layout.Engine
	Repository storage.Repository
	Location   string

	mu         sync.Mutex
	logger     *log.Logger
	autoLayout bool
	dirty      bool
	created    bool
}

// Option configures a Session.
type Option func(*Session)

// WithEngine sets the layout engine.
func WithEngine(e *layout.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.Engine = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAutoLayout controls whether a successful mutation that leaves the
// layout stale re-runs the engine. It is on by default.
func WithAutoLayout(on bool) Option {
	return func(s *Session) { s.autoLayout = on }
}

// New wraps an existing store. repo may be nil for a session that is
// never saved.
func New(store *tree.Store, repo storage.Repository, opts ...Option) *Session {
	s := &Session{
		Store:      store,
		Engine:     layout.New(),
		Repository: repo,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
		autoLayout: true,
	}
	if repo != nil {
		s.Location = repo.Location()
		s.Engine = layout.New(layout.WithConfig(layout.Config{PhotoDir: storage.Dir(s.Location)}))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the tree at location. A location holding no tree yields an
// empty session that [Session.Created] reports; saving it creates the tree.
func Open(ctx context.Context, location string, opts ...Option) (*Session, tree.LoadReport, error) {
	repo, err := storage.Open(location)
	if err != nil {
		return nil, tree.LoadReport{}, err
	}

	store, report, err := repo.Load(ctx)
	created := false
	switch {
	case errors.Is(err, errors.ErrCodeFileNotFound):
		store, created = tree.New(), true
	case err != nil:
		_ = repo.Close()
		return nil, report, err
	}

	s := New(store, repo, opts...)
	s.created = created
	s.logger.Debug("opened tree",
		"location", location,
		"backend", repo.Backend(),
		"persons", store.Len(),
		"new", created)
	if n := report.Total(); n > 0 {
		s.logger.Warn("dropped invalid records", "count", n, "detail", report.String())
	}
	return s, report, nil
}

// Created reports whether Open found no tree at the location.
func (s *Session) Created() bool { return s.created }

// Do runs fn with exclusive access to the store. When fn succeeds the
// session is marked dirty and, with auto layout on, a stale layout is
// recomputed. A failed fn leaves nothing to recompute: store mutations
// are atomic.
func (s *Session) Do(fn func(*tree.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.Store); err != nil {
		return err
	}
	s.dirty = true
	if s.autoLayout && s.Store.LayoutStale() {
		s.layout(false)
	}
	return nil
}

// View runs fn with exclusive access to the store. fn must not mutate it.
func (s *Session) View(fn func(*tree.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.Store)
}

// Layout recomputes positions. With reset every manual placement is
// discarded.
func (s *Session) Layout(reset bool) layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	return s.layout(reset)
}

func (s *Session) layout(reset bool) layout.Result {
	var res layout.Result
	if reset {
		res = s.Engine.Reset(s.Store)
	} else {
		res = s.Engine.Apply(s.Store)
	}
	if w := res.Warning(); w != nil {
		s.logger.Warn(errors.UserMessage(w))
	}
	return res
}

// Dirty reports whether the store changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Save writes the store to its repository.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Repository == nil {
		return errors.New(errors.ErrCodeInvalidPath, "session has no repository")
	}
	if err := s.Repository.Save(ctx, s.Store.Snapshot()); err != nil {
		return err
	}
	s.dirty, s.created = false, false
	s.logger.Debug("saved tree", "location", s.Location, "persons", s.Store.Len())
	return nil
}

// Close releases the repository.
func (s *Session) Close() error {
	if s.Repository == nil {
		return nil
	}
	return s.Repository.Close()
}
