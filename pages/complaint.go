package pages

import (
	"context"

	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/wait"
)

var (
	complaintTitle       = wait.XPath("//input[contains(@placeholder, 'Title') or @name='title']").Named("complaint title")
	complaintCategory    = wait.XPath("//select[contains(@name, 'category') or contains(@class, 'select')]").Named("complaint category")
	complaintDescription = wait.XPath("//textarea[contains(@placeholder, 'Describe') or @name='description']").Named("complaint description")
	complaintSubmit      = wait.XPath("//button[@type='submit']").Named("submit complaint button")
	complaintSuccess     = wait.XPath("//div[contains(text(),'Success') or contains(text(),'submitted')]").Named("complaint confirmation")
)

// Complaint is the content of a filed complaint.
type Complaint struct {
	Title       string
	Category    string // visible text of the category option
	Description string
}

// ComplaintPage is the complaint form.
type ComplaintPage struct {
	page
}

// NewComplaintPage returns the complaint form of the session behind wd.
func NewComplaintPage(wd selenium.WebDriver, l *wait.Locator) *ComplaintPage {
	return &ComplaintPage{newPage(wd, l)}
}

// File fills in and submits the form.
func (p *ComplaintPage) File(ctx context.Context, c Complaint) error {
	if err := p.act.Type(ctx, p.wd, complaintTitle, c.Title); err != nil {
		return err
	}
	if err := p.act.Select(ctx, p.wd, complaintCategory, c.Category); err != nil {
		return err
	}
	if err := p.act.Type(ctx, p.wd, complaintDescription, c.Description); err != nil {
		return err
	}
	_, err := p.act.Click(ctx, p.wd, complaintSubmit)
	return err
}

// SuccessMessage waits for the confirmation and returns its text.
func (p *ComplaintPage) SuccessMessage(ctx context.Context) (string, error) {
	return p.act.Text(ctx, p.wd, complaintSuccess)
}
