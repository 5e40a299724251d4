// Package browser describes the supported browser kinds and builds the
// WebDriver capabilities for each of them.
package browser

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"github.com/tebeka/selenium/log"
)

// Kind is a supported browser engine.
type Kind int

// The supported kinds. Default is used whenever a configured name is not
// recognized.
const (
	Chrome Kind = iota
	Firefox
	Edge

	Default = Chrome
)

// Kinds lists every supported kind.
var Kinds = []Kind{Chrome, Firefox, Edge}

func (k Kind) String() string {
	switch k {
	case Chrome:
		return "chrome"
	case Firefox:
		return "firefox"
	case Edge:
		return "edge"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parse maps a configured browser name to its Kind. Names are matched case
// insensitively; ok is false for an unknown name, in which case Default is
// returned.
func Parse(name string) (k Kind, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chrome", "googlechrome", "google-chrome", "chromium":
		return Chrome, true
	case "firefox", "ff", "gecko":
		return Firefox, true
	case "edge", "msedge", "microsoftedge":
		return Edge, true
	}
	return Default, false
}

// ContainerArgs are the browser arguments needed to run inside a container:
// no OS-level sandbox and no /dev/shm usage.
var ContainerArgs = []string{"--no-sandbox", "--disable-dev-shm-usage"}

// Options tunes the capabilities built for a kind.
type Options struct {
	// Container adds ContainerArgs (and the equivalent preferences for
	// Firefox).
	Container bool
	Headless  bool
	// Binary is the browser executable, when not the system default.
	Binary string
	// ProxyHTTP routes HTTP and HTTPS traffic through a manual proxy.
	ProxyHTTP string
	// ProxySOCKS routes all traffic through a SOCKS5 proxy.
	ProxySOCKS string
	// LogLevel, when set, asks the driver to keep browser console logs at
	// that level.
	LogLevel log.Level
	// Verbose turns on driver-side tracing where the browser supports it.
	Verbose bool
}

// EdgeCapabilitiesKey is the key under which msedgedriver expects its
// options.
const EdgeCapabilitiesKey = "ms:edgeOptions"

// Capabilities builds the WebDriver capabilities for k.
func Capabilities(k Kind, o Options) selenium.Capabilities {
	var caps selenium.Capabilities
	switch k {
	case Firefox:
		caps = firefoxCapabilities(o)
	case Edge:
		caps = edgeCapabilities(o)
	default:
		caps = chromeCapabilities(o)
	}
	if o.ProxyHTTP != "" || o.ProxySOCKS != "" {
		p := selenium.Proxy{
			Type: selenium.Manual,
			HTTP: o.ProxyHTTP,
			SSL:  o.ProxyHTTP,
		}
		if o.ProxySOCKS != "" {
			p.SOCKS = o.ProxySOCKS
			p.SOCKSVersion = 5
		}
		caps.AddProxy(p)
	}
	if o.LogLevel != "" {
		caps.SetLogLevel(log.Browser, o.LogLevel)
	}
	return caps
}

func chromiumArgs(o Options) []string {
	var args []string
	if o.Container {
		args = append(args, ContainerArgs...)
	}
	if o.Headless {
		args = append(args, "--headless=new", "--window-size=1920,1080")
	}
	return args
}

func chromeCapabilities(o Options) selenium.Capabilities {
	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{
		Path: o.Binary,
		Args: chromiumArgs(o),
		W3C:  true,
	})
	return caps
}

// edgeCapabilities reuses the Chrome option schema, which msedgedriver
// accepts under its own key.
func edgeCapabilities(o Options) selenium.Capabilities {
	caps := selenium.Capabilities{"browserName": "MicrosoftEdge"}
	caps[EdgeCapabilitiesKey] = chrome.Capabilities{
		Path: o.Binary,
		Args: chromiumArgs(o),
		W3C:  true,
	}
	return caps
}

func firefoxCapabilities(o Options) selenium.Capabilities {
	caps := selenium.Capabilities{"browserName": "firefox"}
	f := firefox.Capabilities{Binary: o.Binary}
	if o.Container {
		// Firefox warns about and skips the Chromium switches; the content
		// sandbox is disabled through its preference instead.
		f.Args = append(f.Args, ContainerArgs...)
		f.Prefs = map[string]interface{}{
			"security.sandbox.content.level": 0,
		}
	}
	if o.Headless {
		f.Args = append(f.Args, "-headless")
	}
	if o.Verbose {
		f.Log = &firefox.Log{Level: firefox.Trace}
	}
	caps.AddFirefox(f)
	return caps
}

// Args returns the browser arguments recorded in caps, whichever browser
// they were built for.
func Args(caps selenium.Capabilities) []string {
	for _, key := range []string{chrome.CapabilitiesKey, EdgeCapabilitiesKey} {
		if c, ok := caps[key].(chrome.Capabilities); ok {
			return c.Args
		}
	}
	if f, ok := caps[firefox.CapabilitiesKey].(firefox.Capabilities); ok {
		return f.Args
	}
	return nil
}
