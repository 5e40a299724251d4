// Binary smoke signs in to the citizen portal with the configured test
// account, waits for the dashboard and takes a screenshot.
//
// By default it runs once and exits non-zero on failure. With -http it
// serves the screenshot of a fresh run for every request to "/".
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	municipality "github.com/UjwalRamteke8/municipality-system"
	"github.com/UjwalRamteke8/municipality-system/config"
	"github.com/UjwalRamteke8/municipality-system/driver"
	"github.com/UjwalRamteke8/municipality-system/pages"
	"github.com/UjwalRamteke8/municipality-system/screenshot"
)

var (
	configPath = flag.String("config", "", "The path to the properties file. If empty, $MUNICIPALITY_CONFIG or config.properties is used.")
	addr       = flag.String("http", "", "If set, serve screenshots of smoke runs on this address instead of running once.")
)

// smoke runs one login and returns a PNG of the dashboard.
func smoke(ctx context.Context, lc *municipality.Lifecycle) ([]byte, error) {
	var png []byte
	c := lc.Config()
	err := municipality.Run(ctx, lc, func(ctx context.Context, s *driver.Session) error {
		l := lc.Locator()
		if err := pages.NewLoginPage(s, l).Login(ctx, c.TestEmail(), c.TestPassword()); err != nil {
			return err
		}
		if err := pages.NewDashboardPage(s, l, c.AppURL()).WaitLoaded(ctx); err != nil {
			if path, serr := screenshot.Save(s, c.ScreenshotDir(), "smoke_failure"); serr == nil {
				glog.Errorf("Dashboard did not load, screenshot at %s", path)
			}
			return err
		}
		var err error
		png, err = s.Screenshot()
		return err
	})
	return png, err
}

func screenshotHandler(c *config.Config, opts ...municipality.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		png, err := smoke(r.Context(), municipality.New(c, opts...))
		if err != nil {
			http.Error(w, fmt.Sprintf("smoke run failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if _, err := w.Write(png); err != nil {
			glog.Warningf("Write() returned error: %v", err)
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "ok")
}

func main() {
	flag.Parse()
	c, err := config.Load(config.Path(*configPath))
	if err != nil {
		glog.Exitf("Loading configuration: %v", err)
	}

	if *addr != "" {
		http.Handle("/", screenshotHandler(c))
		http.HandleFunc("/healthz", healthCheckHandler)
		glog.Infof("Listening on %s", *addr)
		glog.Exit(http.ListenAndServe(*addr, nil))
	}

	png, err := smoke(context.Background(), municipality.New(c))
	if err != nil {
		glog.Exitf("Smoke run against %s failed: %v", c.AppURL(), err)
	}
	if err := os.MkdirAll(c.ScreenshotDir(), 0755); err != nil {
		glog.Exit(err)
	}
	path := filepath.Join(c.ScreenshotDir(), screenshot.FileName("smoke", time.Now()))
	if err := os.WriteFile(path, png, 0644); err != nil {
		glog.Exitf("Saving screenshot: %v", err)
	}
	fmt.Println(path)
}
