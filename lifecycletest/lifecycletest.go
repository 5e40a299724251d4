// Package lifecycletest binds browser sessions to Go tests.
//
// Start gives a test its own session and releases it when the test ends. If
// the test failed, a screenshot and the browser console log are captured
// first.
package lifecycletest

import (
	"context"
	"flag"
	"testing"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"

	municipality "github.com/UjwalRamteke8/municipality-system"
	"github.com/UjwalRamteke8/municipality-system/config"
	"github.com/UjwalRamteke8/municipality-system/driver"
	"github.com/UjwalRamteke8/municipality-system/screenshot"
)

var (
	configPath = flag.String("config", "", "The path to the properties file. If empty, $MUNICIPALITY_CONFIG or config.properties is used.")
	strict     = flag.Bool("strict_config", false, "If true, a missing or malformed configuration fails the test instead of falling back to defaults.")
)

// Config loads the configuration named by the -config flag.
func Config(t testing.TB) *config.Config {
	t.Helper()
	var opts []config.Option
	if *strict {
		opts = append(opts, config.Strict())
	}
	c, err := config.Load(config.Path(*configPath), opts...)
	if err != nil {
		t.Fatalf("Loading configuration: %v", err)
	}
	return c
}

// Start creates a session for t from the -config configuration and opens the
// application in it.
func Start(t testing.TB, opts ...municipality.Option) (*municipality.Lifecycle, *driver.Session) {
	t.Helper()
	return StartWith(t, Config(t), opts...)
}

// StartWith is Start with an explicit configuration.
func StartWith(t testing.TB, c *config.Config, opts ...municipality.Option) (*municipality.Lifecycle, *driver.Session) {
	t.Helper()
	lc := municipality.New(c, opts...)
	// Registered before Setup so that a session whose navigation failed is
	// still released.
	t.Cleanup(func() {
		if s := lc.Session(); s != nil && t.Failed() {
			Capture(t, s, c.ScreenshotDir())
		}
		if err := lc.Teardown(); err != nil {
			t.Errorf("Teardown() returned error: %v", err)
		}
	})

	s, err := lc.Setup(context.Background())
	if err != nil {
		t.Fatalf("Setup() returned error: %v", err)
	}
	return lc, s
}

// Capture saves a screenshot of wd into dir and logs the browser console.
// Failures are logged, never fatal.
func Capture(t testing.TB, wd selenium.WebDriver, dir string) {
	t.Helper()
	if path, err := screenshot.Save(wd, dir, t.Name()); err != nil {
		t.Logf("No screenshot: %v", err)
	} else {
		t.Logf("Screenshot: %s", path)
	}

	msgs, err := wd.Log(log.Browser)
	if err != nil {
		t.Logf("No browser log: %v", err)
		return
	}
	for _, m := range msgs {
		t.Logf("browser %s %s: %s", m.Timestamp.Format("15:04:05.000"), m.Level, m.Message)
	}
}
