// Binary fetchdrivers downloads the WebDriver binaries the test harness needs
// into the driver cache, so that CI images do not fetch them on every run.
package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"

	"github.com/UjwalRamteke8/municipality-system/config"
	"github.com/UjwalRamteke8/municipality-system/internal/download"
)

var (
	configPath = flag.String("config", "", "The path to the properties file. If empty, $MUNICIPALITY_CONFIG or config.properties is used.")
	drivers    = flag.String("drivers", download.ChromeDriver+","+download.Geckodriver, "Comma-separated list of drivers to download.")
	version    = flag.String("version", "", "The driver version to download. If empty, driver.version from the configuration, or the latest release, is used.")
	cacheDir   = flag.String("cache", "", "The directory to download into. If empty, driver.cache from the configuration is used.")
	dryRun     = flag.Bool("dry_run", false, "If true, only print what would be downloaded.")
)

func parseDrivers(list string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, n := range strings.Split(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		if n != download.ChromeDriver && n != download.Geckodriver {
			return nil, fmt.Errorf("unknown driver %q, want %s or %s", n, download.ChromeDriver, download.Geckodriver)
		}
		seen[n] = true
		names = append(names, n)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no drivers requested")
	}
	return names, nil
}

func main() {
	flag.Parse()
	ctx := context.Background()

	c, err := config.Load(config.Path(*configPath))
	if err != nil {
		glog.Exitf("Loading configuration: %v", err)
	}
	names, err := parseDrivers(*drivers)
	if err != nil {
		glog.Exit(err)
	}
	v := *version
	if v == "" {
		v = c.DriverVersion()
	}
	dir := *cacheDir
	if dir == "" {
		dir = c.DriverCache()
	}

	if *dryRun {
		p := download.Current()
		for _, name := range names {
			f, err := download.Describe(ctx, name, v, p)
			if err != nil {
				glog.Exitf("Error handling %s: %v", name, err)
			}
			fmt.Printf("%s %s\t%s\n", name, f.Version, f.URL)
		}
		return
	}

	paths, err := download.All(ctx, names, v, dir)
	if err != nil {
		glog.Exit(err)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s\t%s\n", name, paths[name])
	}
}
