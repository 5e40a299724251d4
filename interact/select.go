package interact

import (
	"context"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/wait"
)

// Select resolves q as a visible <select> and chooses the option whose
// visible text is text, ignoring surrounding and repeated whitespace.
func (s *Strategy) Select(ctx context.Context, wd selenium.WebDriver, q wait.Query, text string) error {
	el, err := s.Locator.Resolve(ctx, wd, q.Visible())
	if err != nil {
		return err
	}
	fail := func(err error) error { return &Error{Op: "select", Query: q, Native: err} }

	tag, err := el.TagName()
	if err != nil {
		return fail(err)
	}
	if !strings.EqualFold(tag, "select") {
		return fail(fmt.Errorf(`element should have been "select" but was %q`, tag))
	}

	opt, err := optionByText(el, text)
	if err != nil {
		return fail(err)
	}
	selected, err := opt.IsSelected()
	if err != nil {
		return fail(err)
	}
	if selected {
		return nil
	}
	if err := opt.Click(); err != nil {
		return fail(err)
	}
	return nil
}

func optionByText(sel selenium.WebElement, text string) (selenium.WebElement, error) {
	opts, err := sel.FindElements(selenium.ByXPATH, optionXPath(text))
	if err != nil {
		return nil, err
	}
	if len(opts) > 0 {
		return opts[0], nil
	}

	// normalize-space does not collapse non-breaking spaces; compare the
	// rendered text as a last resort.
	all, err := sel.FindElements(selenium.ByTagName, "option")
	if err != nil {
		return nil, err
	}
	want := strings.Join(strings.Fields(text), " ")
	for _, o := range all {
		t, err := o.Text()
		if err != nil {
			return nil, err
		}
		if strings.Join(strings.Fields(t), " ") == want {
			return o, nil
		}
	}
	return nil, fmt.Errorf("cannot locate option with text: %s", text)
}

func optionXPath(text string) string {
	return ".//option[normalize-space(.) = " + xpathLiteral(strings.Join(strings.Fields(text), " ")) + "]"
}

// xpathLiteral quotes s as an XPath 1.0 string literal, which has no escape
// sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + p + `"`)
	}
	b.WriteString(")")
	return b.String()
}
