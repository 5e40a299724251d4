package interact

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/internal/fakewd"
	"github.com/UjwalRamteke8/municipality-system/wait"
)

const submit = "//button[@type='submit']"

// stepClock advances a mock clock by each requested sleep.
type stepClock struct{ *clock.Mock }

func (c stepClock) After(d time.Duration) <-chan time.Time {
	c.Mock.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.Mock.Now()
	return ch
}

func newStrategy() *Strategy {
	return New(&wait.Locator{
		Policy: wait.Policy{Timeout: 2 * time.Second, Interval: 500 * time.Millisecond},
		Clock:  stepClock{clock.NewMock()},
	})
}

func scriptedClicks(wd *fakewd.Driver) int {
	n := 0
	for _, s := range wd.Scripts {
		if strings.Contains(s, ".click()") {
			n++
		}
	}
	return n
}

func TestClickNative(t *testing.T) {
	wd := fakewd.New()
	el := fakewd.NewElement("button", "Submit")
	wd.Put(selenium.ByXPATH, submit, el)

	out, err := newStrategy().Click(context.Background(), wd, wait.XPath(submit))
	if err != nil {
		t.Fatalf("Click() returned error: %v", err)
	}
	if out.Method != Native || out.FallbackUsed() {
		t.Errorf("Click() = %+v, want native", out)
	}
	if el.Clicks != 1 || el.JSClicks != 0 {
		t.Errorf("clicks native=%d scripted=%d, want 1 and 0", el.Clicks, el.JSClicks)
	}
}

func TestClickFallsBackOnceWhenIntercepted(t *testing.T) {
	interceptions := []error{
		fakewd.Intercepted,
		&selenium.Error{Err: "unknown error", Message: "Element is not clickable at point (412, 301)"},
		&selenium.Error{Err: "element not interactable"},
	}
	for _, ierr := range interceptions {
		wd := fakewd.New()
		el := fakewd.NewElement("button", "Submit")
		el.ClickErrs = []error{ierr}
		wd.Put(selenium.ByXPATH, submit, el)

		out, err := newStrategy().Click(context.Background(), wd, wait.XPath(submit))
		if err != nil {
			t.Fatalf("%v: Click() returned error: %v", ierr, err)
		}
		if !out.FallbackUsed() {
			t.Errorf("%v: Click() = %+v, want fallback used", ierr, out)
		}
		if out.Reason != ierr {
			t.Errorf("%v: Outcome.Reason = %v, want the interception", ierr, out.Reason)
		}
		if el.JSClicks != 1 || scriptedClicks(wd) != 1 {
			t.Errorf("%v: scripted clicks = %d (scripts %d), want exactly 1", ierr, el.JSClicks, scriptedClicks(wd))
		}
		if el.Clicks != 0 {
			t.Errorf("%v: native clicks = %d after interception, want 0", ierr, el.Clicks)
		}
	}
}

func TestClickFallbackFailure(t *testing.T) {
	wd := fakewd.New()
	el := fakewd.NewElement("button", "Submit")
	el.ClickErrs = []error{fakewd.Intercepted}
	jsErr := &selenium.Error{Err: "javascript error", Message: "click is not a function"}
	el.JSClickErr = jsErr
	wd.Put(selenium.ByXPATH, submit, el)

	out, err := newStrategy().Click(context.Background(), wd, wait.XPath(submit).Named("submit button"))
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Fatalf("Click() error = %v, want *Error", err)
	}
	if ierr.Native != fakewd.Intercepted || ierr.Fallback != jsErr {
		t.Errorf("Error = %+v, want native interception and fallback cause", ierr)
	}
	if !errors.Is(err, jsErr) || !errors.Is(err, fakewd.Intercepted) {
		t.Errorf("errors.Is(%v) does not reach both causes", err)
	}
	if out.Method != Failed {
		t.Errorf("Outcome.Method = %v, want failed", out.Method)
	}
	if n := scriptedClicks(wd); n != 1 {
		t.Errorf("scripted click attempts = %d, want 1", n)
	}
}

func TestClickNonInterceptionFailureSkipsFallback(t *testing.T) {
	wd := fakewd.New()
	el := fakewd.NewElement("button", "Submit")
	el.ClickErrs = []error{fakewd.Stale}
	wd.Put(selenium.ByXPATH, submit, el)

	out, err := newStrategy().Click(context.Background(), wd, wait.XPath(submit))
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Fatalf("Click() error = %v, want *Error", err)
	}
	if ierr.Fallback != nil || scriptedClicks(wd) != 0 {
		t.Errorf("Click() attempted a fallback for a non-interception failure")
	}
	if out.Method != Failed {
		t.Errorf("Outcome.Method = %v, want failed", out.Method)
	}
}

func TestClickResolveTimeout(t *testing.T) {
	wd := fakewd.New()
	el := fakewd.NewElement("button", "Submit")
	el.Enabled = false
	wd.Put(selenium.ByXPATH, submit, el)

	_, err := newStrategy().Click(context.Background(), wd, wait.XPath(submit))
	var terr *wait.TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("Click() on a disabled button = %v, want *wait.TimeoutError", err)
	}
	if terr.Condition != "clickable" {
		t.Errorf("TimeoutError.Condition = %q, want clickable", terr.Condition)
	}
	if el.Clicks != 0 {
		t.Errorf("disabled button was clicked")
	}
}

func TestType(t *testing.T) {
	wd := fakewd.New()
	el := fakewd.NewElement("input", "stale@example.com")
	wd.Put(selenium.ByXPATH, "//input[@type='email']", el)

	if err := newStrategy().Type(context.Background(), wd, wait.XPath("//input[@type='email']"), "citizen@city.gov"); err != nil {
		t.Fatalf("Type() returned error: %v", err)
	}
	if el.Value != "citizen@city.gov" {
		t.Errorf("element value = %q, want the typed text only", el.Value)
	}
	if el.Clears != 1 {
		t.Errorf("Clears = %d, want 1", el.Clears)
	}
}

func TestTypeFailureIsNotRetried(t *testing.T) {
	wd := fakewd.New()
	el := fakewd.NewElement("input", "")
	sendErr := &selenium.Error{Err: "element not interactable"}
	el.SendErr = sendErr
	wd.Put(selenium.ByName, "title", el)

	err := newStrategy().Type(context.Background(), wd, wait.Name("title"), "Pothole")
	var ierr *Error
	if !errors.As(err, &ierr) || ierr.Op != "type" {
		t.Fatalf("Type() error = %v, want *Error from type", err)
	}
	if !errors.Is(err, sendErr) {
		t.Errorf("Type() error does not wrap the send failure")
	}
	if scriptedClicks(wd) != 0 || len(wd.Scripts) != 0 {
		t.Errorf("Type() ran scripts %v, want none", wd.Scripts)
	}
	if el.Clears != 1 {
		t.Errorf("Clears = %d, want exactly one attempt", el.Clears)
	}
}

func TestSelect(t *testing.T) {
	wd := fakewd.New()
	roads := fakewd.NewElement("option", "Roads")
	water := fakewd.NewElement("option", "Water  Supply")
	sel := fakewd.NewElement("select", "")
	sel.Children = map[string][]*fakewd.Element{
		fakewd.Key(selenium.ByXPATH, optionXPath("Roads")): {roads},
		fakewd.Key(selenium.ByTagName, "option"):          {roads, water},
	}
	wd.Put(selenium.ByName, "category", sel)
	s := newStrategy()

	if err := s.Select(context.Background(), wd, wait.Name("category"), "Roads"); err != nil {
		t.Fatalf("Select(Roads) returned error: %v", err)
	}
	if !roads.Selected || roads.Clicks != 1 {
		t.Errorf("Roads selected=%t clicks=%d, want selected by one click", roads.Selected, roads.Clicks)
	}
	if err := s.Select(context.Background(), wd, wait.Name("category"), "Roads"); err != nil {
		t.Fatalf("Select(Roads) again returned error: %v", err)
	}
	if roads.Clicks != 1 {
		t.Errorf("selecting an already selected option clicked it again")
	}

	if err := s.Select(context.Background(), wd, wait.Name("category"), " Water Supply "); err != nil {
		t.Fatalf("Select(Water Supply) returned error: %v", err)
	}
	if !water.Selected {
		t.Errorf("Water Supply not selected through the text fallback")
	}

	err := s.Select(context.Background(), wd, wait.Name("category"), "Parks")
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Errorf("Select(Parks) = %v, want *Error", err)
	}
}

func TestSelectRejectsNonSelect(t *testing.T) {
	wd := fakewd.New()
	wd.Put(selenium.ByName, "category", fakewd.NewElement("input", ""))
	if err := newStrategy().Select(context.Background(), wd, wait.Name("category"), "Roads"); err == nil {
		t.Error("Select() on an <input> returned nil error")
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Roads", `"Roads"`},
		{`Say "hi"`, `'Say "hi"'`},
		{`It's "x"`, `concat("It's ", '"', "x", '"', "")`},
	}
	for _, tc := range tests {
		if got := xpathLiteral(tc.in); got != tc.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestScrollIntoView(t *testing.T) {
	wd := fakewd.New()
	wd.Put(selenium.ByID, "footer", fakewd.NewElement("div", ""))
	if err := newStrategy().ScrollIntoView(context.Background(), wd, wait.ID("footer")); err != nil {
		t.Fatalf("ScrollIntoView() returned error: %v", err)
	}
	if len(wd.Scripts) != 1 || !strings.Contains(wd.Scripts[0], "scrollIntoView") {
		t.Errorf("scripts = %v, want one scrollIntoView", wd.Scripts)
	}
}
