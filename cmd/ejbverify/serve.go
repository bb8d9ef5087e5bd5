package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ejb-verifier/pkg/config"
	"ejb-verifier/pkg/server"
	"ejb-verifier/pkg/watcher"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(*configPath, stderr, func(c *config.Config) {
		if *addr != "" {
			c.Server.Addr = *addr
		}
	})
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	deps := server.Deps{Verifier: a.deployer, Log: a.log}
	if a.store != nil {
		deps.Reports = a.store
	}

	ctx, stop := signalContext()
	defer stop()
	return exitCode(stderr, server.New(a.cfg.Server, deps).Run(ctx))
}

func runWatch(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	fs.Usage = func() {
		_ = writef(stderr, "Usage: ejbverify watch [options] [dir]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(*configPath, stderr, func(c *config.Config) {
		if fs.NArg() > 0 {
			c.Watch.Dir = fs.Arg(0)
		}
	})
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	if a.cfg.Watch.Dir == "" {
		_ = writef(stderr, "error: deploy directory is required (argument or watch.dir)\n")
		fs.Usage()
		return 2
	}

	w := watcher.New(a.cfg.Watch.Dir, a.deployer,
		watcher.WithDebounce(a.cfg.Watch.Debounce),
		watcher.WithLogger(a.log))

	ctx, stop := signalContext()
	defer stop()
	return exitCode(stderr, w.Run(ctx))
}
