package lifecycletest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tebeka/selenium/log"

	municipality "github.com/UjwalRamteke8/municipality-system"
	"github.com/UjwalRamteke8/municipality-system/config"
	"github.com/UjwalRamteke8/municipality-system/driver"
	"github.com/UjwalRamteke8/municipality-system/internal/fakewd"
)

// recorder stands in for a test so that failures and cleanups can be
// observed without failing the real test.
type recorder struct {
	testing.TB
	name     string
	failed   bool
	fatal    string
	logs     []string
	cleanups []func()
}

func (r *recorder) Helper()              {}
func (r *recorder) Name() string         { return r.name }
func (r *recorder) Failed() bool         { return r.failed }
func (r *recorder) Cleanup(f func())     { r.cleanups = append(r.cleanups, f) }
func (r *recorder) Logf(f string, a ...interface{}) {
	r.logs = append(r.logs, fmt.Sprintf(f, a...))
}
func (r *recorder) Errorf(f string, a ...interface{}) {
	r.failed = true
	r.logs = append(r.logs, fmt.Sprintf(f, a...))
}
func (r *recorder) Fatalf(f string, a ...interface{}) {
	r.failed = true
	r.fatal = fmt.Sprintf(f, a...)
}

func (r *recorder) finish() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

type fakeCreator struct {
	wd  *fakewd.Driver
	err error
}

func (f *fakeCreator) Create(context.Context, *config.Config, driver.Environment) (*driver.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &driver.Session{WebDriver: f.wd, ID: "unit"}, nil
}

func newConfig(t *testing.T) *config.Config {
	return config.FromMap(map[string]string{
		config.KeyAppURL:        "http://localhost:3000",
		config.KeyScreenshotDir: filepath.Join(t.TempDir(), "shots"),
	})
}

func TestStartWithReleasesPassingTest(t *testing.T) {
	wd := fakewd.New()
	wd.PNG = []byte("png")
	r := &recorder{TB: t, name: "TestPass"}
	c := newConfig(t)

	lc, s := StartWith(r, c, municipality.WithFactory(&fakeCreator{wd: wd}))
	if r.fatal != "" {
		t.Fatalf("StartWith() failed: %s", r.fatal)
	}
	if s == nil || lc.State() != municipality.Active {
		t.Fatalf("StartWith() = %v, state %v; want an active session", s, lc.State())
	}
	r.finish()

	if wd.Quits != 1 {
		t.Errorf("Quit called %d times, want 1", wd.Quits)
	}
	if _, err := os.Stat(c.ScreenshotDir()); !os.IsNotExist(err) {
		t.Errorf("screenshot directory exists after a passing test (err = %v)", err)
	}
}

func TestStartWithCapturesFailedTest(t *testing.T) {
	wd := fakewd.New()
	wd.PNG = []byte("png")
	wd.Logs = []log.Message{{
		Timestamp: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
		Level:     log.Severe,
		Message:   "Uncaught TypeError: cannot read properties of undefined",
	}}
	r := &recorder{TB: t, name: "TestFail"}
	c := newConfig(t)

	StartWith(r, c, municipality.WithFactory(&fakeCreator{wd: wd}))
	r.Errorf("login did not reach the dashboard")
	r.finish()

	shots, err := filepath.Glob(filepath.Join(c.ScreenshotDir(), "TestFail_*.png"))
	if err != nil || len(shots) != 1 {
		t.Errorf("screenshots = %v, %v; want one TestFail_*.png", shots, err)
	}
	if !strings.Contains(strings.Join(r.logs, "\n"), "Uncaught TypeError") {
		t.Errorf("browser log not reported; logs:\n%s", strings.Join(r.logs, "\n"))
	}
	if wd.Quits != 1 {
		t.Errorf("Quit called %d times, want 1", wd.Quits)
	}
}

func TestStartWithReleasesAfterNavigationFailure(t *testing.T) {
	wd := fakewd.New()
	wd.GetErr = errors.New("net::ERR_CONNECTION_REFUSED")
	r := &recorder{TB: t, name: "TestNav"}

	StartWith(r, newConfig(t), municipality.WithFactory(&fakeCreator{wd: wd}))
	if !strings.Contains(r.fatal, "ERR_CONNECTION_REFUSED") {
		t.Errorf("fatal message = %q, want the navigation failure", r.fatal)
	}
	r.finish()
	if wd.Quits != 1 {
		t.Errorf("Quit called %d times, want 1", wd.Quits)
	}
}

func TestStartWithCreateFailure(t *testing.T) {
	r := &recorder{TB: t, name: "TestCreate"}
	f := &fakeCreator{err: &driver.InitError{Stage: "driver", Err: errors.New("chromedriver not found")}}

	StartWith(r, newConfig(t), municipality.WithFactory(f))
	if !strings.Contains(r.fatal, "chromedriver not found") {
		t.Errorf("fatal message = %q, want the factory failure", r.fatal)
	}
	r.finish()
	for _, l := range r.logs {
		if strings.Contains(l, "Teardown") {
			t.Errorf("unexpected teardown report: %s", l)
		}
	}
}

func TestCaptureWithoutScreenshot(t *testing.T) {
	r := &recorder{TB: t, name: "TestNoShot"}
	Capture(r, fakewd.New(), t.TempDir())
	if len(r.logs) == 0 || !strings.HasPrefix(r.logs[0], "No screenshot") {
		t.Errorf("logs = %q, want a missing screenshot note", r.logs)
	}
	if r.failed {
		t.Error("Capture() failed the test")
	}
}
