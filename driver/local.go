package driver

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"

	"github.com/tebeka/selenium"

	"github.com/UjwalRamteke8/municipality-system/browser"
	"github.com/UjwalRamteke8/municipality-system/config"
	"github.com/UjwalRamteke8/municipality-system/internal/download"
)

// DriverName returns the WebDriver server executable for k.
func DriverName(k browser.Kind) string {
	switch k {
	case browser.Firefox:
		return download.Geckodriver
	case browser.Edge:
		return "msedgedriver"
	}
	return download.ChromeDriver
}

var (
	lookPath    = exec.LookPath
	fetchDriver = download.Driver
)

// resolveDriver picks the driver binary: driver.path if set, then $PATH,
// then a download into driver.cache.
func resolveDriver(ctx context.Context, k browser.Kind, c *config.Config) (string, error) {
	if p := c.DriverPath(); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s: %v", config.KeyDriverPath, err)
		}
		return p, nil
	}
	name := DriverName(k)
	if p, err := lookPath(name); err == nil {
		return p, nil
	}
	if !c.DriverDownload() {
		return "", fmt.Errorf("%s not found in $PATH and %s is off", name, config.KeyDriverDownload)
	}
	p, err := fetchDriver(ctx, name, c.DriverVersion(), c.DriverCache())
	if err != nil {
		return "", fmt.Errorf("%s not found in $PATH and could not be downloaded: %v", name, err)
	}
	return p, nil
}

// startService runs the driver server. chromedriver and msedgedriver share
// their command line and serve under /wd/hub; geckodriver serves at the root.
func startService(k browser.Kind, path string, port int, opts ...selenium.ServiceOption) (Service, string, error) {
	if k == browser.Firefox {
		s, err := selenium.NewGeckoDriverService(path, port, opts...)
		if err != nil {
			return nil, "", err
		}
		return s, fmt.Sprintf("http://localhost:%d", port), nil
	}
	s, err := selenium.NewChromeDriverService(path, port, opts...)
	if err != nil {
		return nil, "", err
	}
	return s, fmt.Sprintf("http://localhost:%d/wd/hub", port), nil
}

func pickUnusedPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
