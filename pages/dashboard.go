package pages

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/wait"
)

// Routes of the citizen area.
const (
	ServicesRoute  = "citizen-services"
	ComplaintRoute = "complaint"
)

var (
	servicesNav   = wait.XPath("//a[contains(@href, 'citizen-services')]").Named("Citizen Services link")
	complaintCard = wait.XPath("//h3[contains(text(),'File Complaint') or contains(text(),'Register')]/parent::div//a").Named("File Complaint card link")
	citizenBadge  = wait.XPath("//span[contains(text(),'CITIZEN')] | //nav//img").Named("citizen badge")
)

// DashboardPage is the landing area after a citizen signs in.
type DashboardPage struct {
	page
	appURL string
}

// NewDashboardPage returns the dashboard of the application at appURL.
func NewDashboardPage(wd selenium.WebDriver, l *wait.Locator, appURL string) *DashboardPage {
	return &DashboardPage{page: newPage(wd, l), appURL: appURL}
}

// WaitLoaded waits until the browser is on the application and the citizen
// badge is visible.
func (p *DashboardPage) WaitLoaded(ctx context.Context) error {
	host := p.appURL
	if u, err := url.Parse(p.appURL); err == nil && u.Host != "" {
		host = u.Host
	}
	if err := ExpectURLContains(ctx, p.wd, p.locate, host, 0); err != nil {
		return err
	}
	if _, err := p.locate.Resolve(ctx, p.wd, citizenBadge.Visible()); err != nil {
		u, _ := p.wd.CurrentURL()
		return &NavigationError{Expected: "citizen dashboard", URL: u, Err: err}
	}
	return nil
}

// OpenFileComplaint goes through Citizen Services to the complaint form.
func (p *DashboardPage) OpenFileComplaint(ctx context.Context) (*ComplaintPage, error) {
	if _, err := p.act.Click(ctx, p.wd, servicesNav); err != nil {
		return nil, err
	}
	if err := ExpectURLContains(ctx, p.wd, p.locate, ServicesRoute, 0); err != nil {
		return nil, err
	}
	if err := p.act.ScrollIntoView(ctx, p.wd, complaintCard); err != nil {
		return nil, err
	}
	if _, err := p.act.Click(ctx, p.wd, complaintCard); err != nil {
		return nil, fmt.Errorf("open complaint form: %w", err)
	}
	if err := ExpectURLContains(ctx, p.wd, p.locate, ComplaintRoute, 0); err != nil {
		return nil, err
	}
	return &ComplaintPage{newPage(p.wd, p.locate)}, nil
}
