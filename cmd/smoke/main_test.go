package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tebeka/selenium"

	municipality "github.com/UjwalRamteke8/municipality-system"
	"github.com/UjwalRamteke8/municipality-system/config"
	"github.com/UjwalRamteke8/municipality-system/driver"
	"github.com/UjwalRamteke8/municipality-system/internal/fakewd"
)

type fakeCreator struct {
	wd  *fakewd.Driver
	err error
}

func (f *fakeCreator) Create(context.Context, *config.Config, driver.Environment) (*driver.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &driver.Session{WebDriver: f.wd, ID: "smoke"}, nil
}

// portal fakes a login form that accepts the default test account.
func portal() *fakewd.Driver {
	const app = "http://localhost:3000"
	wd := fakewd.New()
	wd.Routes = map[string]string{app: app + "/citizenlogin"}
	wd.PNG = []byte("\x89PNG\r\n\x1a\n")
	email := fakewd.NewElement("input", "")
	password := fakewd.NewElement("input", "")
	submit := fakewd.NewElement("button", "Sign In")
	wd.Put(selenium.ByXPATH, "//input[@type='email']", email)
	wd.Put(selenium.ByXPATH, "//input[@type='password']", password)
	wd.Put(selenium.ByXPATH, "//button[contains(text(),'Sign In')]", submit)
	submit.OnClick = func() {
		e, _ := email.Text()
		p, _ := password.Text()
		if e == "testuser@example.com" && p == "password123" {
			wd.SetURL(app + "/dashboard")
			wd.Put(selenium.ByXPATH, "//span[contains(text(),'CITIZEN')] | //nav//img", fakewd.NewElement("span", "CITIZEN"))
		}
	}
	return wd
}

func TestScreenshotHandler(t *testing.T) {
	wd := portal()
	h := screenshotHandler(config.FromMap(nil), municipality.WithFactory(&fakeCreator{wd: wd}))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d %s, want 200", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), wd.PNG) {
		t.Errorf("body = %q, want the dashboard screenshot", rec.Body.Bytes())
	}
	if wd.Quits != 1 {
		t.Errorf("Quit called %d times, want 1", wd.Quits)
	}
}

func TestScreenshotHandlerFailure(t *testing.T) {
	f := &fakeCreator{err: errors.New("grid unreachable")}
	h := screenshotHandler(config.FromMap(nil), municipality.WithFactory(f))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "grid unreachable") {
		t.Errorf("GET / = %d %q, want 500 with the cause", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /favicon.ico = %d, want 404", rec.Code)
	}
}
