// Package driver creates browser sessions.
//
// A Factory makes one decision per call: if a remote endpoint is known the
// session is created there, hardened for containers; otherwise a local
// driver service is started for the configured browser. Either way the
// returned Session has implicit element waits disabled, a page-load timeout
// and a maximized window.
package driver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"
	"github.com/tebeka/selenium/sauce"

	"github.com/UjwalRamteke8/municipality-system/browser"
	"github.com/UjwalRamteke8/municipality-system/config"
)

// RemoteURLEnv names the environment variable that switches the factory to
// remote mode.
const RemoteURLEnv = "REMOTE_URL"

// Environment is the execution environment a session is created in.
type Environment struct {
	// RemoteURL overrides any configured endpoint when set.
	RemoteURL string
}

// EnvironmentFromOS reads the environment of the current process.
func EnvironmentFromOS() Environment {
	return Environment{RemoteURL: strings.TrimSpace(os.Getenv(RemoteURLEnv))}
}

// InitError reports a session that could not be created or prepared.
type InitError struct {
	Browser  browser.Kind
	Endpoint string
	// Stage is the step that failed: "driver", "service", "session" or
	// "normalize".
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	where := "local"
	if e.Endpoint != "" {
		where = redact(e.Endpoint)
	}
	return fmt.Sprintf("cannot start %v session (%s) at %s: %v", e.Browser, where, e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Service is a running local WebDriver server.
type Service interface {
	Stop() error
}

// Factory creates sessions. The function fields default to the real
// implementations and are replaced in tests.
type Factory struct {
	// NewRemote opens a WebDriver session at urlPrefix.
	NewRemote func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error)
	// StartService starts the local driver server for k from the binary at
	// path and returns it with its WebDriver URL.
	StartService func(k browser.Kind, path string, port int, opts ...selenium.ServiceOption) (Service, string, error)
	// ResolveDriver finds or fetches the driver binary for k.
	ResolveDriver func(ctx context.Context, k browser.Kind, c *config.Config) (string, error)
	// PickPort returns a free TCP port for a local service.
	PickPort func() (int, error)
	// NewID names sessions.
	NewID func() string
}

// NewFactory returns a factory wired to real browsers.
func NewFactory() *Factory {
	return &Factory{
		NewRemote:     selenium.NewRemote,
		StartService:  startService,
		ResolveDriver: resolveDriver,
		PickPort:      pickUnusedPort,
		NewID:         uuid.NewString,
	}
}

// Endpoint returns the remote WebDriver URL for c in env, or "" for a local
// session. The environment wins over remote.url, which wins over Sauce Labs
// credentials.
func Endpoint(c *config.Config, env Environment) string {
	if env.RemoteURL != "" {
		return env.RemoteURL
	}
	if u := c.RemoteURL(); u != "" {
		return u
	}
	if user, key, ok := c.SauceCredentials(); ok {
		return sauce.Addr(user, key)
	}
	return ""
}

// Kind returns the browser kind configured in c. Unknown names fall back to
// browser.Default with a warning.
func Kind(c *config.Config) browser.Kind {
	k, ok := browser.Parse(c.Browser())
	if !ok {
		glog.Warningf("Unsupported browser %q, using %v", c.Browser(), k)
	}
	return k
}

// Create starts one session for c in env. It never navigates.
func (f *Factory) Create(ctx context.Context, c *config.Config, env Environment) (*Session, error) {
	if c.Debug() {
		selenium.SetDebug(true)
	}
	k := Kind(c)
	opts := browser.Options{
		Headless:   c.Headless(),
		ProxyHTTP:  c.ProxyHTTP(),
		ProxySOCKS: c.ProxySOCKS(),
		LogLevel:   log.Level(strings.ToUpper(c.BrowserLogLevel())),
		Verbose:    c.Debug(),
	}

	var (
		s   *Session
		err error
	)
	if endpoint := Endpoint(c, env); endpoint != "" {
		s, err = f.remote(k, opts, endpoint, c)
	} else {
		s, err = f.local(ctx, k, opts, c)
	}
	if err != nil {
		return nil, err
	}
	s.ID = f.newID()

	if err := normalize(s, c); err != nil {
		if qerr := s.Quit(); qerr != nil {
			glog.Warningf("Quitting half-initialized %v: %v", s, qerr)
		}
		return nil, &InitError{Browser: k, Endpoint: remoteOnly(s), Stage: "normalize", Err: err}
	}
	glog.Infof("Started %v", s)
	return s, nil
}

func (f *Factory) newID() string {
	if f.NewID == nil {
		return uuid.NewString()
	}
	return f.NewID()
}

func (f *Factory) remote(k browser.Kind, opts browser.Options, endpoint string, c *config.Config) (*Session, error) {
	opts.Container = true
	caps := browser.Capabilities(k, opts)
	if user, key, ok := c.SauceCredentials(); ok && endpoint == sauce.Addr(user, key) {
		if err := addSauceCapabilities(caps, k); err != nil {
			return nil, &InitError{Browser: k, Endpoint: endpoint, Stage: "session", Err: err}
		}
	}
	wd, err := f.NewRemote(caps, endpoint)
	if err != nil {
		return nil, &InitError{Browser: k, Endpoint: endpoint, Stage: "session", Err: err}
	}
	return &Session{
		WebDriver:             wd,
		Browser:               k,
		Remote:                true,
		Endpoint:              endpoint,
		RequestedCapabilities: caps,
	}, nil
}

func addSauceCapabilities(caps selenium.Capabilities, k browser.Kind) error {
	sc := &sauce.Capabilities{Browser: caps["browserName"].(string), Version: "latest", TestName: "municipality-system " + k.String()}
	m, err := sc.ToMap()
	if err != nil {
		return fmt.Errorf("sauce capabilities: %v", err)
	}
	for key, v := range m {
		if _, ok := caps[key]; !ok {
			caps[key] = v
		}
	}
	return nil
}

func (f *Factory) local(ctx context.Context, k browser.Kind, opts browser.Options, c *config.Config) (*Session, error) {
	path, err := f.ResolveDriver(ctx, k, c)
	if err != nil {
		return nil, &InitError{Browser: k, Stage: "driver", Err: err}
	}
	port, err := f.PickPort()
	if err != nil {
		return nil, &InitError{Browser: k, Stage: "service", Err: err}
	}

	var svcOpts []selenium.ServiceOption
	if c.Xvfb() {
		svcOpts = append(svcOpts, selenium.StartFrameBuffer())
	}
	if c.Debug() {
		svcOpts = append(svcOpts, selenium.Output(os.Stderr))
	}
	svc, addr, err := f.StartService(k, path, port, svcOpts...)
	if err != nil {
		return nil, &InitError{Browser: k, Stage: "service", Err: fmt.Errorf("%s on port %d: %v", path, port, err)}
	}

	caps := browser.Capabilities(k, opts)
	wd, err := f.NewRemote(caps, addr)
	if err != nil {
		if serr := svc.Stop(); serr != nil {
			glog.Warningf("Stopping %s after failed session: %v", path, serr)
		}
		return nil, &InitError{Browser: k, Stage: "session", Err: err}
	}
	return &Session{
		WebDriver:             wd,
		Browser:               k,
		Endpoint:              addr,
		RequestedCapabilities: caps,
		service:               svc,
	}, nil
}

// normalize puts a fresh session into the state every test expects. Element
// lookups never wait implicitly; the wait package owns all waiting.
func normalize(s *Session, c *config.Config) error {
	if err := s.SetImplicitWaitTimeout(0); err != nil {
		return fmt.Errorf("set implicit wait: %v", err)
	}
	if d := c.ImplicitWait(); d > 0 {
		if err := s.SetPageLoadTimeout(d); err != nil {
			return fmt.Errorf("set page load timeout %v: %v", d, err)
		}
	}
	if err := s.MaximizeWindow(""); err != nil {
		return fmt.Errorf("maximize window: %v", err)
	}
	return nil
}

func remoteOnly(s *Session) string {
	if s.Remote {
		return s.Endpoint
	}
	return ""
}

// redact hides credentials embedded in an endpoint URL.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Redacted()
}
