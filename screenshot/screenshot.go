// Package screenshot captures the browser viewport for failure reports.
package screenshot

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

// TimeFormat is the timestamp layout in screenshot file names.
const TimeFormat = "2006-01-02_15-04-05"

var nowFunc = time.Now

// FileName returns the file name for a screenshot of name taken at t.
func FileName(name string, t time.Time) string {
	return sanitize(name) + "_" + t.Format(TimeFormat) + ".png"
}

// sanitize turns a test name such as "TestLogin/empty_email" into something
// safe to use as a file name.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "screenshot"
	}
	return name
}

// Save writes a PNG of the current viewport to dir and returns its path.
func Save(wd selenium.WebDriver, dir, name string) (string, error) {
	png, err := wd.Screenshot()
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %v", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(name, nowFunc()))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", err
	}
	glog.Infof("Screenshot saved: %s", path)
	return path, nil
}

// Base64 returns the current viewport as a base64-encoded PNG, for embedding
// in reports.
func Base64(wd selenium.WebDriver) (string, error) {
	png, err := wd.Screenshot()
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %v", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
