package wait

import (
	"fmt"
	"time"

	"github.com/tebeka/selenium"
)

// Query describes an element to find and the state it must be in. It is a
// plain value; methods return modified copies.
type Query struct {
	By    string
	Value string
	// Condition the element must satisfy. Zero means Present.
	Condition Condition
	// Timeout overrides the locator policy when non-zero.
	Timeout time.Duration
	// Name is a human label used in errors and logs.
	Name string
}

// XPath returns a query for the first element matching the XPath expression.
func XPath(expr string) Query { return Query{By: selenium.ByXPATH, Value: expr} }

// CSS returns a query for the first element matching the CSS selector.
func CSS(selector string) Query { return Query{By: selenium.ByCSSSelector, Value: selector} }

// ID returns a query for the element with the given id attribute.
func ID(id string) Query { return Query{By: selenium.ByID, Value: id} }

// Name returns a query for elements with the given name attribute.
func Name(name string) Query { return Query{By: selenium.ByName, Value: name} }

// Visible returns q requiring a visible element.
func (q Query) Visible() Query { q.Condition = Visible; return q }

// Clickable returns q requiring a clickable element.
func (q Query) Clickable() Query { q.Condition = Clickable; return q }

// Present returns q requiring only that the element exists.
func (q Query) Present() Query { q.Condition = Present; return q }

// Is returns q with condition c.
func (q Query) Is(c Condition) Query { q.Condition = c; return q }

// Within returns q with its own timeout.
func (q Query) Within(d time.Duration) Query { q.Timeout = d; return q }

// Named returns q labelled for error messages.
func (q Query) Named(name string) Query { q.Name = name; return q }

func (q Query) String() string {
	if q.Name != "" {
		return q.Name
	}
	return fmt.Sprintf("%s %q", q.By, q.Value)
}
