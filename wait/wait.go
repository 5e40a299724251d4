// Package wait resolves elements by polling a condition under a bounded
// wait policy.
//
// Every wait is explicit: a probe runs, and if its condition does not hold
// the locator sleeps for the poll interval (never past the deadline) and
// probes again. A wait never blocks longer than its timeout plus one poll
// interval.
package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

// Defaults used when a Policy field is zero.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// Policy bounds a wait.
type Policy struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func (p Policy) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

// Status is the outcome of one probe.
type Status int

const (
	// Unsatisfied means the condition does not hold yet.
	Unsatisfied Status = iota
	// Satisfied means the condition holds.
	Satisfied
	// Failed means the probe hit an error that waiting will not fix.
	Failed
)

func (s Status) String() string {
	switch s {
	case Unsatisfied:
		return "unsatisfied"
	case Satisfied:
		return "satisfied"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of evaluating a query once.
type Result struct {
	Status Status
	// Element is set when Status is Satisfied.
	Element selenium.WebElement
	// Err is the cause of a Failed result, or the transient error last seen
	// for an Unsatisfied one.
	Err error
}

// Evaluate probes q once: it finds every element matching the locator and
// returns the first one satisfying the condition.
func Evaluate(wd selenium.WebDriver, q Query) Result {
	els, err := wd.FindElements(q.By, q.Value)
	if err != nil {
		return classify(err)
	}
	var last Result
	for _, el := range els {
		r := evaluateElement(wd, el, q.Condition)
		switch r.Status {
		case Satisfied, Failed:
			return r
		}
		if r.Err != nil {
			last = r
		}
	}
	return last
}

func evaluateElement(wd selenium.WebDriver, el selenium.WebElement, c Condition) Result {
	for _, check := range c.checks {
		ok, err := check(wd, el)
		if err != nil {
			return classify(err)
		}
		if !ok {
			return Result{Status: Unsatisfied}
		}
	}
	return Result{Status: Satisfied, Element: el}
}

func classify(err error) Result {
	if IsTransient(err) {
		return Result{Status: Unsatisfied, Err: err}
	}
	return Result{Status: Failed, Err: err}
}

// TimeoutError is returned when a condition did not hold within the timeout.
type TimeoutError struct {
	// What names the element or state waited for.
	What      string
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
	// Last is the last transient error seen, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	s := fmt.Sprintf("%s not %s after %v (timeout %v)", e.What, e.Condition, e.Elapsed, e.Timeout)
	if e.Last != nil {
		s += ": last error: " + e.Last.Error()
	}
	return s
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// Locator resolves queries against a session. The zero Locator uses the
// default policy and the wall clock.
type Locator struct {
	Policy Policy
	// Clock drives the poll loop. Nil means the wall clock.
	Clock clock.Clock
}

// NewLocator returns a locator with policy p.
func NewLocator(p Policy) *Locator {
	return &Locator{Policy: p, Clock: clock.New()}
}

func (l *Locator) clock() clock.Clock {
	if l.Clock == nil {
		return clock.New()
	}
	return l.Clock
}

// Resolve waits until an element matching q satisfies its condition and
// returns it. It fails with a *TimeoutError when the timeout elapses, with
// the context error when ctx ends, and immediately with the wrapped cause
// when a probe fails for a reason other than the element being absent or
// stale.
func (l *Locator) Resolve(ctx context.Context, wd selenium.WebDriver, q Query) (selenium.WebElement, error) {
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = l.Policy.timeout()
	}
	r, err := l.poll(ctx, q.String(), q.Condition.String(), timeout, func() Result {
		return Evaluate(wd, q)
	})
	if err != nil {
		return nil, err
	}
	return r.Element, nil
}

// Until waits until cond holds, with the same loop and error semantics as
// Resolve. what describes the awaited state in errors. A zero timeout uses
// the locator policy.
func (l *Locator) Until(ctx context.Context, wd selenium.WebDriver, what string, timeout time.Duration, cond selenium.Condition) error {
	if timeout <= 0 {
		timeout = l.Policy.timeout()
	}
	_, err := l.poll(ctx, what, "reached", timeout, func() Result {
		ok, err := cond(wd)
		switch {
		case err != nil:
			return classify(err)
		case ok:
			return Result{Status: Satisfied}
		}
		return Result{Status: Unsatisfied}
	})
	return err
}

func (l *Locator) poll(ctx context.Context, what, cond string, timeout time.Duration, probe func() Result) (Result, error) {
	clk := l.clock()
	interval := l.Policy.interval()
	start := clk.Now()
	var lastErr error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("waiting for %s to be %s: %w", what, cond, err)
		}
		r := probe()
		glog.V(1).Infof("wait: %s %s probe %d: %v", what, cond, n, r.Status)
		switch r.Status {
		case Satisfied:
			return r, nil
		case Failed:
			return r, fmt.Errorf("waiting for %s to be %s: %w", what, cond, r.Err)
		}
		if r.Err != nil {
			lastErr = r.Err
		}

		elapsed := clk.Now().Sub(start)
		remaining := timeout - elapsed
		if remaining <= 0 {
			return r, &TimeoutError{
				What:      what,
				Condition: cond,
				Timeout:   timeout,
				Elapsed:   elapsed,
				Last:      lastErr,
			}
		}
		sleep := interval
		if remaining < sleep {
			sleep = remaining
		}
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("waiting for %s to be %s: %w", what, cond, ctx.Err())
		case <-clk.After(sleep):
		}
	}
}
