package main

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all command-line options.
type cliFlags struct {
	output     string
	quality    string
	browserBin string
	controlURL string
	noSandbox  bool
	timeout    time.Duration
	doctor     bool
	verbose    bool
	version    bool
}

// parseFlags parses argv and returns the flags plus positional arguments.
func parseFlags(argv []string) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet(argv[0], flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	f := &cliFlags{}
	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (default: derived from the page title)")
	fs.StringVarP(&f.quality, "quality", "q", "", "render quality: low, medium, high (default medium)")
	fs.StringVar(&f.browserBin, "browser-bin", "", "path to a pre-installed Chrome/Chromium binary")
	fs.StringVar(&f.controlURL, "control-url", "", "connect to a remote DevTools endpoint instead of launching")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers, CI)")
	fs.DurationVar(&f.timeout, "timeout", 2*time.Minute, "end-to-end deadline for the conversion")
	fs.BoolVar(&f.doctor, "doctor", false, "check that a browser can be launched, then exit")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(argv[1:]); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), `web2pdf - render a web page to PDF

Usage:
  web2pdf [flags] URL

Examples:
  web2pdf https://example.com
  web2pdf -q high -o page.pdf https://example.com
  web2pdf --doctor

Flags:
%s`, fs.FlagUsages())
}
