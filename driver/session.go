package driver

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/browser"
)

// Session is an exclusive handle to one live browser. It embeds the
// WebDriver connection, so it can be passed anywhere a selenium.WebDriver is
// expected.
type Session struct {
	selenium.WebDriver

	// ID identifies the session in logs and artifact names. It is assigned by
	// the factory and is unrelated to the WebDriver session id.
	ID      string
	Browser browser.Kind
	// Remote is true when the browser runs behind a remote endpoint.
	Remote bool
	// Endpoint is the WebDriver URL the session was created against.
	Endpoint string
	// RequestedCapabilities are the capabilities the session was requested with.
	RequestedCapabilities selenium.Capabilities

	service Service

	mu       sync.Mutex
	released bool
	quitErr  error
}

// Quit ends the browser session and stops the local driver service, if any.
// Only the first call does anything; later calls return its result.
func (s *Session) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return s.quitErr
	}
	s.released = true

	var errs []error
	if err := s.WebDriver.Quit(); err != nil {
		errs = append(errs, fmt.Errorf("quit %v session %s: %v", s.Browser, s.ID, err))
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop driver service for %s: %v", s.ID, err))
		}
	}
	switch len(errs) {
	case 0:
		glog.Infof("Released %v session %s", s.Browser, s.ID)
	case 1:
		s.quitErr = errs[0]
	default:
		s.quitErr = fmt.Errorf("%v; %v", errs[0], errs[1])
	}
	return s.quitErr
}

// Released reports whether Quit has been called.
func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *Session) String() string {
	where := "local"
	if s.Remote {
		where = "remote"
	}
	return fmt.Sprintf("%v session %s (%s %s)", s.Browser, s.ID, where, redact(s.Endpoint))
}
