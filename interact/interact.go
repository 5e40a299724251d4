// Package interact performs element interactions on top of the wait
// package: every target is resolved under a condition before it is touched.
package interact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/wait"
)

// Method records how an interaction was carried out.
type Method int

const (
	// Failed means the interaction did not happen.
	Failed Method = iota
	// Native means the browser performed a real pointer or keyboard action.
	Native
	// Fallback means a click event was dispatched from script after the
	// native click was intercepted.
	Fallback
)

func (m Method) String() string {
	switch m {
	case Failed:
		return "failed"
	case Native:
		return "native"
	case Fallback:
		return "fallback"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Outcome is the result of one click.
type Outcome struct {
	Method Method
	// Reason is the interception that forced a fallback, or the failure.
	Reason error
}

// FallbackUsed reports whether the click succeeded only through the
// scripted fallback.
func (o Outcome) FallbackUsed() bool { return o.Method == Fallback }

// Error is returned when an interaction on a resolved element fails.
type Error struct {
	Op    string
	Query wait.Query
	// Native is the error from the browser action.
	Native error
	// Fallback is the error from the scripted click, if one was attempted.
	Fallback error
}

func (e *Error) Error() string {
	if e.Fallback != nil {
		return fmt.Sprintf("%s %s: %v; fallback click: %v", e.Op, e.Query, e.Native, e.Fallback)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Query, e.Native)
}

func (e *Error) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Native, e.Fallback} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Intercepted reports whether err means another element received the
// native click, in either the W3C or the legacy wire form.
func Intercepted(err error) bool {
	var serr *selenium.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Err {
	case "element click intercepted", "element not interactable":
		return true
	}
	return strings.Contains(serr.Message, "is not clickable at point") ||
		strings.Contains(serr.Message, "Other element would receive the click")
}

const (
	clickScript  = `arguments[0].click();`
	scrollScript = `arguments[0].scrollIntoView({block: "center", inline: "nearest"});`
)

// Strategy interacts with elements resolved by its Locator.
type Strategy struct {
	Locator *wait.Locator
}

// New returns a Strategy resolving targets with l.
func New(l *wait.Locator) *Strategy {
	return &Strategy{Locator: l}
}

// Click resolves q as clickable and clicks it. If the native click is
// intercepted, the click event is dispatched on the element from script,
// once. Resolution errors are returned unchanged.
func (s *Strategy) Click(ctx context.Context, wd selenium.WebDriver, q wait.Query) (Outcome, error) {
	el, err := s.Locator.Resolve(ctx, wd, q.Clickable())
	if err != nil {
		return Outcome{Method: Failed, Reason: err}, err
	}

	nerr := el.Click()
	if nerr == nil {
		return Outcome{Method: Native}, nil
	}
	if !Intercepted(nerr) {
		e := &Error{Op: "click", Query: q, Native: nerr}
		return Outcome{Method: Failed, Reason: e}, e
	}

	glog.Warningf("Click on %s intercepted, dispatching from script: %v", q, nerr)
	if _, ferr := wd.ExecuteScript(clickScript, []interface{}{el}); ferr != nil {
		e := &Error{Op: "click", Query: q, Native: nerr, Fallback: ferr}
		return Outcome{Method: Failed, Reason: e}, e
	}
	return Outcome{Method: Fallback, Reason: nerr}, nil
}

// Type resolves q as visible, clears it and sends text. Failures are not
// retried.
func (s *Strategy) Type(ctx context.Context, wd selenium.WebDriver, q wait.Query, text string) error {
	el, err := s.Locator.Resolve(ctx, wd, q.Visible())
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return &Error{Op: "clear", Query: q, Native: err}
	}
	if err := el.SendKeys(text); err != nil {
		return &Error{Op: "type", Query: q, Native: err}
	}
	return nil
}

// Text resolves q as visible and returns its rendered text.
func (s *Strategy) Text(ctx context.Context, wd selenium.WebDriver, q wait.Query) (string, error) {
	el, err := s.Locator.Resolve(ctx, wd, q.Visible())
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", &Error{Op: "text", Query: q, Native: err}
	}
	return text, nil
}

// ScrollIntoView resolves q and scrolls it to the centre of the viewport.
func (s *Strategy) ScrollIntoView(ctx context.Context, wd selenium.WebDriver, q wait.Query) error {
	el, err := s.Locator.Resolve(ctx, wd, q.Present())
	if err != nil {
		return err
	}
	if _, err := wd.ExecuteScript(scrollScript, []interface{}{el}); err != nil {
		return &Error{Op: "scroll", Query: q, Native: err}
	}
	return nil
}
