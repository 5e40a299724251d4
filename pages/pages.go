// Package pages holds the page objects of the citizen-services portal.
//
// Page objects only describe where things are; every lookup goes through a
// wait.Locator and every click through an interact.Strategy.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/interact"
	"github.com/UjwalRamteke8/municipality-system/wait"
)

// NavigationError is returned when the browser did not reach the expected
// page.
type NavigationError struct {
	// Expected describes the page, usually a URL fragment.
	Expected string
	// URL is where the browser was instead.
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("expected %s, browser is at %q: %v", e.Expected, e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// page is the plumbing shared by every page object.
type page struct {
	wd     selenium.WebDriver
	locate *wait.Locator
	act    *interact.Strategy
}

func newPage(wd selenium.WebDriver, l *wait.Locator) page {
	return page{wd: wd, locate: l, act: interact.New(l)}
}

// URLContains is a wait condition on the current URL.
func URLContains(fragment string) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		u, err := wd.CurrentURL()
		if err != nil {
			return false, err
		}
		return strings.Contains(u, fragment), nil
	}
}

// ExpectURLContains waits until the current URL contains fragment and fails
// with a *NavigationError otherwise. A zero timeout uses the locator policy.
func ExpectURLContains(ctx context.Context, wd selenium.WebDriver, l *wait.Locator, fragment string, timeout time.Duration) error {
	err := l.Until(ctx, wd, fmt.Sprintf("URL containing %q", fragment), timeout, URLContains(fragment))
	if err == nil {
		return nil
	}
	u, uerr := wd.CurrentURL()
	if uerr != nil {
		u = "<unknown>"
	}
	return &NavigationError{Expected: fmt.Sprintf("URL containing %q", fragment), URL: u, Err: err}
}

// visibleWithin reports whether q becomes visible within d. Only a timeout
// counts as "no"; other failures are returned.
func (p page) visibleWithin(ctx context.Context, q wait.Query, d time.Duration) (bool, error) {
	_, err := p.locate.Resolve(ctx, p.wd, q.Visible().Within(d))
	var terr *wait.TimeoutError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &terr):
		return false, nil
	}
	return false, err
}
