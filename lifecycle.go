package municipality

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/UjwalRamteke8/municipality-system/config"
	"github.com/UjwalRamteke8/municipality-system/driver"
	"github.com/UjwalRamteke8/municipality-system/interact"
	"github.com/UjwalRamteke8/municipality-system/wait"
)

// State is the phase of a Lifecycle.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// ErrActive is returned by Setup when the lifecycle already owns a session.
var ErrActive = errors.New("lifecycle already has an active session")

// Creator creates browser sessions. *driver.Factory is the real one.
type Creator interface {
	Create(ctx context.Context, c *config.Config, env driver.Environment) (*driver.Session, error)
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithFactory replaces the session factory.
func WithFactory(f Creator) Option {
	return func(l *Lifecycle) { l.factory = f }
}

// WithEnvironment replaces the environment read from the process.
func WithEnvironment(env driver.Environment) Option {
	return func(l *Lifecycle) { l.env = &env }
}

// Lifecycle owns the browser session of one test unit.
type Lifecycle struct {
	config  *config.Config
	env     *driver.Environment
	factory Creator

	mu      sync.Mutex
	state   State
	session *driver.Session
}

// New returns an inactive lifecycle for c.
func New(c *config.Config, opts ...Option) *Lifecycle {
	l := &Lifecycle{config: c}
	for _, opt := range opts {
		opt(l)
	}
	if l.factory == nil {
		l.factory = driver.NewFactory()
	}
	if l.env == nil {
		env := driver.EnvironmentFromOS()
		l.env = &env
	}
	return l
}

// Config returns the configuration sessions are created from.
func (l *Lifecycle) Config() *config.Config { return l.config }

// Setup creates a session and opens the application in it.
//
// If the session was created but the application could not be opened, the
// lifecycle still owns the session and is Active; Teardown releases it.
func (l *Lifecycle) Setup(ctx context.Context) (*driver.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Active {
		return nil, ErrActive
	}
	s, err := l.factory.Create(ctx, l.config, *l.env)
	if err != nil {
		return nil, err
	}
	l.session = s
	l.state = Active

	if err := s.Get(l.config.AppURL()); err != nil {
		return s, fmt.Errorf("open %s in %v: %w", l.config.AppURL(), s, err)
	}
	glog.Infof("Opened %s in %v", l.config.AppURL(), s)
	return s, nil
}

// Teardown releases the session. It is safe to call at any time and any
// number of times; only the first call after a Setup releases anything.
func (l *Lifecycle) Teardown() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Inactive {
		return nil
	}
	s := l.session
	l.session = nil
	l.state = Inactive
	return s.Quit()
}

// State returns the current phase.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Session returns the active session, or nil.
func (l *Lifecycle) Session() *driver.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// Locator returns a locator using the configured explicit wait and poll
// interval.
func (l *Lifecycle) Locator() *wait.Locator {
	return wait.NewLocator(wait.Policy{
		Timeout:  l.config.ExplicitWait(),
		Interval: l.config.PollInterval(),
	})
}

// Strategy returns an interaction strategy built on Locator.
func (l *Lifecycle) Strategy() *interact.Strategy {
	return interact.New(l.Locator())
}

// Run sets up a session, calls body with it and tears the session down on
// every exit path, including a panic in body. A teardown failure is reported
// only when nothing else failed.
func Run(ctx context.Context, l *Lifecycle, body func(context.Context, *driver.Session) error) (err error) {
	defer func() {
		if terr := l.Teardown(); terr != nil {
			if err == nil {
				err = terr
			} else {
				glog.Warningf("Teardown after failure: %v", terr)
			}
		}
	}()
	s, err := l.Setup(ctx)
	if err != nil {
		return err
	}
	return body(ctx, s)
}
