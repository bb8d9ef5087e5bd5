// Command ejbverify 在部署前验证 EJB 部署单元
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

const usage = `Usage: ejbverify <command> [options]

Commands:
  verify    verify one or more deployment units (jar or exploded directory)
  serve     run the HTTP verification service
  watch     verify archives dropped into a deploy directory
  sections  print the rule catalog

Run 'ejbverify <command> -h' for command options.
`

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_ = writef(stderr, "%s", usage)
		return 2
	}
	switch args[0] {
	case "verify":
		return runVerify(args[1:], stdout, stderr)
	case "serve":
		return runServe(args[1:], stderr)
	case "watch":
		return runWatch(args[1:], stderr)
	case "sections":
		return runSections(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		if err := writef(stdout, "%s", usage); err != nil {
			return 1
		}
		return 0
	default:
		_ = writef(stderr, "error: unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

// exitCode serve / watch 的退出码，正常停止视为成功
func exitCode(stderr io.Writer, err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	_ = writef(stderr, "error: %v\n", err)
	return 1
}
