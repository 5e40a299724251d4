package wait

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
)

// Check is one predicate over an element found by a query.
type Check func(wd selenium.WebDriver, el selenium.WebElement) (bool, error)

// Condition is a named conjunction of checks. The zero Condition is Present.
type Condition struct {
	name   string
	checks []Check
}

// NewCondition returns a condition that holds when every check holds.
func NewCondition(name string, checks ...Check) Condition {
	return Condition{name: name, checks: checks}
}

// And returns a stricter condition named name: c plus checks.
func (c Condition) And(name string, checks ...Check) Condition {
	all := make([]Check, 0, len(c.checks)+len(checks))
	all = append(all, c.checks...)
	all = append(all, checks...)
	return Condition{name: name, checks: all}
}

func (c Condition) String() string {
	if c.name == "" {
		return "present"
	}
	return c.name
}

// The built-in conditions. Each includes the one before it.
var (
	Present   = NewCondition("present")
	Visible   = Present.And("visible", Displayed, NonEmpty)
	Clickable = Visible.And("clickable", Enabled, Unobscured)
)

// Displayed holds for elements the browser reports as displayed.
func Displayed(_ selenium.WebDriver, el selenium.WebElement) (bool, error) {
	return el.IsDisplayed()
}

// NonEmpty holds for elements with a non-zero rendered size.
func NonEmpty(_ selenium.WebDriver, el selenium.WebElement) (bool, error) {
	sz, err := el.Size()
	if err != nil {
		return false, err
	}
	return sz.Width > 0 && sz.Height > 0, nil
}

// Enabled holds for elements that accept input.
func Enabled(_ selenium.WebDriver, el selenium.WebElement) (bool, error) {
	return el.IsEnabled()
}

// unobscuredScript reports whether the element (or one of its descendants)
// is the top-most element at its centre. Elements outside the viewport are
// reported as unobscured since the driver scrolls them into view on click.
const unobscuredScript = `
var el = arguments[0];
var r = el.getBoundingClientRect();
var x = r.left + r.width / 2, y = r.top + r.height / 2;
if (x < 0 || y < 0 || x >= window.innerWidth || y >= window.innerHeight) {
	return true;
}
var top = document.elementFromPoint(x, y);
return top !== null && (top === el || el.contains(top));
`

// Unobscured holds when no other element covers the centre of el.
func Unobscured(wd selenium.WebDriver, el selenium.WebElement) (bool, error) {
	v, err := wd.ExecuteScript(unobscuredScript, []interface{}{el})
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("element-from-point script returned %T, want bool", v)
	}
	return b, nil
}

// transient WebDriver error codes: the DOM changed under the probe.
var transientErrs = []string{
	"no such element",
	"stale element reference",
}

// IsTransient reports whether err only means the element is not there yet or
// was replaced, which a later probe may resolve.
func IsTransient(err error) bool {
	var serr *selenium.Error
	if !errors.As(err, &serr) {
		return false
	}
	for _, s := range transientErrs {
		if serr.Err == s || strings.Contains(serr.Message, s) {
			return true
		}
	}
	return false
}
