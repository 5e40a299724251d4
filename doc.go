/*
Package municipality drives browser tests against the municipal citizen
services portal.

A test unit owns exactly one browser session through a Lifecycle. Setup
creates the session with the configured browser, locally or against a
remote grid, and opens the application; Teardown releases it. Run wraps both
around a function so the session is released however the function exits.

Example usage:

	c, err := config.Load(config.Path(""))
	if err != nil {
		glog.Exit(err)
	}
	lc := municipality.New(c)
	err = municipality.Run(ctx, lc, func(ctx context.Context, s *driver.Session) error {
		login := pages.NewLoginPage(s, lc.Locator())
		return login.Login(ctx, c.TestEmail(), c.TestPassword())
	})

Element lookups never use the browser's implicit wait. Every page object
waits through a wait.Locator, which polls a condition until it holds or the
timeout passes, and clicks through an interact.Strategy, which falls back to
a scripted click once when the native click is intercepted.

Tests use the lifecycletest package, which also saves a screenshot and the
browser console log of every failed test.
*/
package municipality
