package main

import (
	"context"
	"flag"
	"io"

	"ejb-verifier/pkg/config"
	"ejb-verifier/pkg/report"
)

func runVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	format := fs.String("format", "text", "report format: text or json")
	version := fs.String("version", "", "force EJB version (1.1, 2.0, 2.1)")
	strictPK := fs.Bool("strict-pk", false, "report missing equals/hashCode on 1.1 primary keys")
	verbose := fs.Bool("v", false, "log progress to stderr")
	fs.Usage = func() {
		_ = writef(stderr, "Usage: ejbverify verify [options] <archive>...\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var render func(io.Writer, *report.Report) error
	switch *format {
	case "text":
		render = report.WriteText
	case "json":
		render = report.WriteJSON
	default:
		_ = writef(stderr, "error: unknown format %q\n", *format)
		return 2
	}
	if fs.NArg() == 0 {
		_ = writef(stderr, "error: at least one archive is required\n")
		fs.Usage()
		return 2
	}

	a, err := newApp(*configPath, stderr, func(c *config.Config) {
		if *version != "" {
			c.Verifier.Version = *version
		}
		if *strictPK {
			c.Verifier.StrictPrimaryKey = true
		}
		if !*verbose {
			c.Log.Level = "error"
		}
	})
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	exit := 0
	ctx := context.Background()
	for _, path := range fs.Args() {
		r, err := a.deployer.VerifyArchive(ctx, path)
		if err != nil {
			_ = writef(stderr, "error: %s: %v\n", path, err)
			exit = 2
			continue
		}
		if err := render(stdout, r); err != nil {
			_ = writef(stderr, "error: write report: %v\n", err)
			return 1
		}
		if !r.Passed() && exit == 0 {
			exit = 1
		}
	}
	return exit
}
