package pages

import (
	"context"
	"strings"
	"time"

	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/wait"
)

// LoginRoute is the URL fragment every login page shares.
const LoginRoute = "login"

var (
	loginEmail    = wait.XPath("//input[@type='email']").Named("email field")
	loginPassword = wait.XPath("//input[@type='password']").Named("password field")
	loginSubmit   = wait.XPath("//button[contains(text(),'Sign In')]").Named("Sign In button")
	loginError    = wait.XPath("//*[contains(text(),'Invalid') or contains(text(),'error')]").Named("login error message")
)

// LoginPage is the citizen sign-in form.
type LoginPage struct {
	page
}

// NewLoginPage returns the login page of the session behind wd.
func NewLoginPage(wd selenium.WebDriver, l *wait.Locator) *LoginPage {
	return &LoginPage{newPage(wd, l)}
}

// Login fills in the credentials and submits the form. It does not check
// where the browser ends up.
func (p *LoginPage) Login(ctx context.Context, email, password string) error {
	if err := p.act.Type(ctx, p.wd, loginEmail, email); err != nil {
		return err
	}
	if err := p.act.Type(ctx, p.wd, loginPassword, password); err != nil {
		return err
	}
	_, err := p.act.Click(ctx, p.wd, loginSubmit)
	return err
}

// ErrorDisplayed reports whether a login error message shows up within d.
func (p *LoginPage) ErrorDisplayed(ctx context.Context, d time.Duration) (bool, error) {
	return p.visibleWithin(ctx, loginError, d)
}

// ErrorMessage returns the text of the login error message.
func (p *LoginPage) ErrorMessage(ctx context.Context) (string, error) {
	return p.act.Text(ctx, p.wd, loginError)
}

// OnLoginRoute reports whether the browser is still on a login URL.
func (p *LoginPage) OnLoginRoute() (bool, error) {
	u, err := p.wd.CurrentURL()
	if err != nil {
		return false, err
	}
	return strings.Contains(u, LoginRoute), nil
}
