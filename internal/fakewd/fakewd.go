// Package fakewd provides scriptable in-memory implementations of
// selenium.WebDriver and selenium.WebElement for unit tests.
//
// Only the methods the harness uses are implemented; calling any other
// method panics through the nil embedded interface.
package fakewd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"
)

// NoSuchElement is the error a WebDriver server returns for an absent element.
var NoSuchElement = &selenium.Error{Err: "no such element", Message: "Unable to locate element", HTTPCode: 404}

// Stale is the error returned for an element detached from the DOM.
var Stale = &selenium.Error{Err: "stale element reference", HTTPCode: 404}

// Intercepted is the error returned when another element receives a click.
var Intercepted = &selenium.Error{
	Err:      "element click intercepted",
	Message:  "Element <button> is not clickable at point (10, 10). Other element would receive the click: <div class=\"overlay\">",
	HTTPCode: 400,
}

// Element is a fake element. Zero value is a present, hidden, disabled
// element of zero size; use NewElement for a usable one.
type Element struct {
	selenium.WebElement

	mu        sync.Mutex
	Tag       string
	Value     string
	Attrs     map[string]string
	Displayed bool
	Enabled   bool
	Selected  bool
	Width     int
	Height    int
	// Obscured makes the element-from-point check report another element on
	// top.
	Obscured bool
	// Children answer FindElement(s) scoped to this element, keyed by
	// "by=value".
	Children map[string][]*Element

	// ClickErrs are returned by successive native clicks; once exhausted,
	// clicks succeed.
	ClickErrs []error
	SendErr   error
	ClearErr  error
	// JSClickErr is returned by the scripted click.
	JSClickErr error
	// StateErr is returned by IsDisplayed, IsEnabled and Size.
	StateErr error

	Clicks   int
	JSClicks int
	Clears   int
	Keys     []string
	// OnClick runs after each successful click, native or scripted.
	OnClick func()
}

// NewElement returns a visible, enabled, unobscured element.
func NewElement(tag, text string) *Element {
	return &Element{Tag: tag, Value: text, Displayed: true, Enabled: true, Width: 100, Height: 20}
}

func (e *Element) Click() error {
	e.mu.Lock()
	if len(e.ClickErrs) > 0 {
		err := e.ClickErrs[0]
		e.ClickErrs = e.ClickErrs[1:]
		if err != nil {
			e.mu.Unlock()
			return err
		}
	}
	e.Clicks++
	if e.Tag == "option" {
		e.Selected = true
	}
	f := e.OnClick
	e.mu.Unlock()
	if f != nil {
		f()
	}
	return nil
}

func (e *Element) SendKeys(keys string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SendErr != nil {
		return e.SendErr
	}
	e.Keys = append(e.Keys, keys)
	e.Value += keys
	return nil
}

func (e *Element) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClearErr != nil {
		return e.ClearErr
	}
	e.Clears++
	e.Value = ""
	return nil
}

func (e *Element) TagName() (string, error) { return e.Tag, nil }

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Value, nil
}

func (e *Element) GetAttribute(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "value" {
		return e.Value, nil
	}
	return e.Attrs[name], nil
}

func (e *Element) IsDisplayed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Displayed, e.StateErr
}

func (e *Element) IsEnabled() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Enabled, e.StateErr
}

func (e *Element) IsSelected() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Selected, e.StateErr
}

func (e *Element) Size() (*selenium.Size, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.StateErr != nil {
		return nil, e.StateErr
	}
	return &selenium.Size{Width: e.Width, Height: e.Height}, nil
}

func (e *Element) FindElement(by, value string) (selenium.WebElement, error) {
	els, _ := e.FindElements(by, value)
	if len(els) == 0 {
		return nil, NoSuchElement
	}
	return els[0], nil
}

func (e *Element) FindElements(by, value string) ([]selenium.WebElement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return webElements(e.Children[Key(by, value)]), nil
}

// Set updates the element state under its lock.
func (e *Element) Set(f func(e *Element)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(e)
}

// Key joins a locator strategy and value into a lookup key.
func Key(by, value string) string { return by + "=" + value }

func webElements(els []*Element) []selenium.WebElement {
	var out []selenium.WebElement
	for _, e := range els {
		out = append(out, e)
	}
	return out
}

// Driver is a fake WebDriver session.
type Driver struct {
	selenium.WebDriver

	mu sync.Mutex
	// Elements answer FindElement(s), keyed by Key(by, value).
	Elements map[string][]*Element
	// FindErr, when set, is returned by every lookup.
	FindErr error
	URL     string
	// Routes rewrites the URL after Get, for simulating redirects.
	Routes    map[string]string
	GetErr    error
	QuitErr   error
	MaxErr    error
	ScriptErr error
	PNG       []byte
	Logs      []log.Message

	Quits          int
	Finds          int
	Visited        []string
	Scripts        []string
	ImplicitWait   *time.Duration
	PageLoadWait   *time.Duration
	Maximized      bool
	SessionIDValue string
}

// New returns an empty fake session.
func New() *Driver {
	return &Driver{Elements: make(map[string][]*Element), SessionIDValue: "fake-session"}
}

// Put registers els under the locator.
func (d *Driver) Put(by, value string, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Elements[Key(by, value)] = els
}

// Remove forgets the locator.
func (d *Driver) Remove(by, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.Elements, Key(by, value))
}

func (d *Driver) FindElements(by, value string) ([]selenium.WebElement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Finds++
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	return webElements(d.Elements[Key(by, value)]), nil
}

func (d *Driver) FindElement(by, value string) (selenium.WebElement, error) {
	els, err := d.FindElements(by, value)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, NoSuchElement
	}
	return els[0], nil
}

// ExecuteScript understands the handful of scripts the harness sends: the
// element-from-point probe, a scripted click and scrollIntoView.
func (d *Driver) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	d.mu.Lock()
	d.Scripts = append(d.Scripts, script)
	err := d.ScriptErr
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var el *Element
	if len(args) > 0 {
		el, _ = args[0].(*Element)
	}
	switch {
	case strings.Contains(script, "elementFromPoint"):
		if el == nil {
			return nil, fmt.Errorf("fakewd: elementFromPoint without an element argument")
		}
		el.mu.Lock()
		defer el.mu.Unlock()
		return !el.Obscured, nil
	case strings.Contains(script, ".click()"):
		if el == nil {
			return nil, fmt.Errorf("fakewd: scripted click without an element argument")
		}
		el.mu.Lock()
		if el.JSClickErr != nil {
			defer el.mu.Unlock()
			return nil, el.JSClickErr
		}
		el.JSClicks++
		f := el.OnClick
		el.mu.Unlock()
		if f != nil {
			f()
		}
		return nil, nil
	case strings.Contains(script, "scrollIntoView"):
		return nil, nil
	}
	return nil, nil
}

func (d *Driver) Get(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetErr != nil {
		return d.GetErr
	}
	d.Visited = append(d.Visited, url)
	d.URL = url
	if to, ok := d.Routes[url]; ok {
		d.URL = to
	}
	return nil
}

// SetURL changes the current URL, as client-side routing would.
func (d *Driver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.URL = url
}

func (d *Driver) CurrentURL() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.URL, nil
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Quits++
	return d.QuitErr
}

func (d *Driver) MaximizeWindow(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.MaxErr != nil {
		return d.MaxErr
	}
	d.Maximized = true
	return nil
}

func (d *Driver) SetImplicitWaitTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ImplicitWait = &timeout
	return nil
}

func (d *Driver) SetPageLoadTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PageLoadWait = &timeout
	return nil
}

func (d *Driver) Screenshot() ([]byte, error) {
	if d.PNG == nil {
		return nil, fmt.Errorf("fakewd: no screenshot")
	}
	return d.PNG, nil
}

func (d *Driver) Log(typ log.Type) ([]log.Message, error) {
	return d.Logs, nil
}

func (d *Driver) SessionID() string { return d.SessionIDValue }
