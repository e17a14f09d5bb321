// Package web2pdf renders live web pages to PDF using headless Chrome and
// tracks per-user monthly conversion quotas.
//
// # Quick Start
//
// Create a service, convert a URL, and close when done:
//
//	svc := web2pdf.NewService()
//	defer svc.Close()
//
//	pdf, err := svc.GeneratePDF(ctx, web2pdf.Input{
//	    URL:     "https://example.com",
//	    Quality: "medium",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("page.pdf", pdf, 0644)
//
// # Rendering Pipeline
//
// Every conversion goes through these stages:
//
//  1. Input validation (absolute http/https URL, known quality tier)
//  2. FIFO render queue (exactly one render at a time against the shared browser)
//  3. Page navigation with retry (3 attempts, DOM-ready, per-tier timeout)
//  4. Settle delay, then PDF serialization (A4, backgrounds, 10mm margins)
//
// The browser process is shared across renders: it launches lazily on first
// demand, concurrent callers wait on the same in-flight launch, and a
// disconnected process is relaunched transparently.
//
// # Quality Tiers
//
// Quality selects the viewport and the navigation time budget: low
// (800x600, 10s), medium (1200x800, 15s), high (1920x1080, 25s). High
// quality also waits longer for deferred content before snapshotting.
//
// # Usage Accounting
//
// Conversions are counted per user against a plan-derived monthly limit
// (free=3, pro=100, enterprise=unlimited), resetting at calendar month
// boundaries:
//
//	status, err := svc.CheckUsageLimit(ctx, userID)
//	if err != nil || !status.Allowed {
//	    // reject the request
//	}
//	pdf, err := svc.GeneratePDF(ctx, in)
//	// persist pdf, then:
//	_, err = svc.IncrementUsage(ctx, userID)
//
// The counter lives in a UsageStore; in-memory, Redis, and MongoDB
// implementations are provided. Increments are atomic in all three, so
// concurrent requests for one user never lose updates.
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library downloads a managed
// Chromium on first run if none is found. Use WithLaunchStrategy to point at
// a pre-installed binary or to connect to a remote DevTools endpoint.
package web2pdf
