// Package config loads the harness settings from a key/value properties file.
//
// A Config is immutable once loaded. Every recognized key has a documented
// default, so a missing key never fails a run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/magiconair/properties"
)

// Recognized keys.
const (
	KeyBrowser         = "browser"
	KeyAppURL          = "app.url"
	KeyImplicitWait    = "implicit.wait"
	KeyExplicitWait    = "explicit.wait"
	KeyPollInterval    = "poll.interval"
	KeyRemoteURL       = "remote.url"
	KeyTestEmail       = "test.email"
	KeyTestPassword    = "test.password"
	KeyHeadless        = "headless"
	KeyXvfb            = "xvfb"
	KeyDebug           = "debug"
	KeyDriverPath      = "driver.path"
	KeyDriverDownload  = "driver.download"
	KeyDriverCache     = "driver.cache"
	KeyDriverVersion   = "driver.version"
	KeyProxyHTTP       = "proxy.http"
	KeyProxySOCKS      = "proxy.socks"
	KeyBrowserLogLevel = "browser.log.level"
	KeyScreenshotDir   = "screenshot.dir"
	KeySauceUserName   = "sauce.username"
	KeySauceAccessKey  = "sauce.access_key"
)

const (
	// DefaultPath is the properties file read when no path is given.
	DefaultPath = "config.properties"
	// PathEnv names the environment variable that overrides DefaultPath.
	PathEnv = "MUNICIPALITY_CONFIG"
)

var defaults = map[string]string{
	KeyBrowser:         "chrome",
	KeyAppURL:          "http://localhost:3000",
	KeyImplicitWait:    "10",
	KeyExplicitWait:    "15",
	KeyPollInterval:    "500ms",
	KeyRemoteURL:       "",
	KeyTestEmail:       "testuser@example.com",
	KeyTestPassword:    "password123",
	KeyHeadless:        "false",
	KeyXvfb:            "false",
	KeyDebug:           "false",
	KeyDriverPath:      "",
	KeyDriverDownload:  "true",
	KeyDriverCache:     "",
	KeyDriverVersion:   "",
	KeyProxyHTTP:       "",
	KeyProxySOCKS:      "",
	KeyBrowserLogLevel: "",
	KeyScreenshotDir:   "screenshots",
	KeySauceUserName:   "",
	KeySauceAccessKey:  "",
}

var (
	durationKeys = []string{KeyImplicitWait, KeyExplicitWait, KeyPollInterval}
	boolKeys     = []string{KeyHeadless, KeyXvfb, KeyDebug, KeyDriverDownload}
)

// LoadError reports a configuration source or value that could not be used.
type LoadError struct {
	Path string
	Key  string // empty when the whole source failed
	Err  error
}

func (e *LoadError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config %s: key %q: %v", e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	strict bool
}

// Strict makes an unreadable source or a malformed value fatal instead of
// falling back to the default.
func Strict() Option {
	return func(o *loadOptions) { o.strict = true }
}

// Config is an immutable set of named settings.
type Config struct {
	path     string
	values   map[string]string
	warnings []error
}

// Path picks the properties file to read: the explicit value if set, then
// $MUNICIPALITY_CONFIG, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the properties file at path.
//
// Unless Strict is given, a missing or unreadable file and any malformed value
// are logged, recorded in Warnings, and replaced by their defaults.
func Load(path string, opts ...Option) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Config{path: path, values: make(map[string]string)}

	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadFile(path)
	if err != nil {
		lerr := &LoadError{Path: path, Err: err}
		if o.strict {
			return nil, lerr
		}
		glog.Warningf("Using default configuration: %v", lerr)
		c.warnings = append(c.warnings, lerr)
		return c, nil
	}
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		c.values[k] = strings.TrimSpace(v)
	}

	if err := c.validate(o.strict); err != nil {
		return nil, err
	}
	return c, nil
}

// FromMap builds a Config from in-memory values, applying the same value
// checks as a lenient Load.
func FromMap(values map[string]string) *Config {
	c := &Config{path: "<memory>", values: make(map[string]string, len(values))}
	for k, v := range values {
		c.values[k] = strings.TrimSpace(v)
	}
	c.validate(false)
	return c
}

func (c *Config) validate(strict bool) error {
	check := func(key string, parse func(string) error) error {
		v, ok := c.values[key]
		if !ok || v == "" {
			return nil
		}
		if err := parse(v); err != nil {
			lerr := &LoadError{Path: c.path, Key: key, Err: err}
			if strict {
				return lerr
			}
			glog.Warningf("Ignoring malformed value, using default %q: %v", defaults[key], lerr)
			c.warnings = append(c.warnings, lerr)
			delete(c.values, key)
		}
		return nil
	}
	for _, k := range durationKeys {
		if err := check(k, func(v string) error {
			_, err := parseDuration(v)
			return err
		}); err != nil {
			return err
		}
	}
	for _, k := range boolKeys {
		if err := check(k, func(v string) error {
			_, err := strconv.ParseBool(v)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// parseDuration accepts a bare integer number of seconds or a Go duration.
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %v", d)
	}
	return d, nil
}

// Source returns the path the configuration was read from.
func (c *Config) Source() string { return c.path }

// Warnings returns the recovered load problems, each a *LoadError.
func (c *Config) Warnings() []error {
	return append([]error(nil), c.warnings...)
}

// Get returns the value for key, or its default. Unknown keys without a value
// return the empty string.
func (c *Config) Get(key string) string {
	if v, ok := c.values[key]; ok && v != "" {
		return v
	}
	return defaults[key]
}

// Keys returns every key that has a value or a default, sorted.
func (c *Config) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for k := range defaults {
		seen[k] = true
		keys = append(keys, k)
	}
	for k := range c.values {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) duration(key string) time.Duration {
	d, err := parseDuration(c.Get(key))
	if err != nil {
		d, _ = parseDuration(defaults[key])
	}
	return d
}

func (c *Config) bool(key string) bool {
	b, err := strconv.ParseBool(c.Get(key))
	if err != nil {
		b, _ = strconv.ParseBool(defaults[key])
	}
	return b
}

// Browser is the configured browser name, as written.
func (c *Config) Browser() string { return c.Get(KeyBrowser) }

// AppURL is the navigation target after a session starts.
func (c *Config) AppURL() string { return c.Get(KeyAppURL) }

// ImplicitWait bounds page loads.
func (c *Config) ImplicitWait() time.Duration { return c.duration(KeyImplicitWait) }

// ExplicitWait is the default timeout for element waits.
func (c *Config) ExplicitWait() time.Duration { return c.duration(KeyExplicitWait) }

// PollInterval is the default interval between wait probes.
func (c *Config) PollInterval() time.Duration { return c.duration(KeyPollInterval) }

// RemoteURL is the configured remote WebDriver endpoint, if any.
func (c *Config) RemoteURL() string { return c.Get(KeyRemoteURL) }

func (c *Config) TestEmail() string    { return c.Get(KeyTestEmail) }
func (c *Config) TestPassword() string { return c.Get(KeyTestPassword) }
func (c *Config) Headless() bool       { return c.bool(KeyHeadless) }
func (c *Config) Xvfb() bool           { return c.bool(KeyXvfb) }
func (c *Config) Debug() bool          { return c.bool(KeyDebug) }
func (c *Config) DriverPath() string   { return c.Get(KeyDriverPath) }
func (c *Config) DriverDownload() bool { return c.bool(KeyDriverDownload) }
func (c *Config) DriverVersion() string {
	return c.Get(KeyDriverVersion)
}
func (c *Config) ProxyHTTP() string       { return c.Get(KeyProxyHTTP) }
func (c *Config) ProxySOCKS() string      { return c.Get(KeyProxySOCKS) }
func (c *Config) BrowserLogLevel() string { return c.Get(KeyBrowserLogLevel) }
func (c *Config) ScreenshotDir() string   { return c.Get(KeyScreenshotDir) }

// SauceCredentials returns the Sauce Labs user name and access key. ok is
// false unless both are set.
func (c *Config) SauceCredentials() (user, key string, ok bool) {
	user, key = c.Get(KeySauceUserName), c.Get(KeySauceAccessKey)
	return user, key, user != "" && key != ""
}

// DriverCache is the directory downloaded driver binaries are kept in.
func (c *Config) DriverCache() string {
	if v := c.Get(KeyDriverCache); v != "" {
		return v
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "municipality-system", "drivers")
}
