package main

import (
	"flag"
	"io"

	"ejb-verifier/pkg/verifier/core"
)

// runSections 打印规则目录；给出章节号时只打印这些
func runSections(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sections", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ids := fs.Args()
	if len(ids) == 0 {
		ids = core.SectionIDs()
	}
	exit := 0
	for _, id := range ids {
		msg, err := core.LookupSection(id)
		if err != nil {
			_ = writef(stderr, "error: %v\n", err)
			exit = 1
			continue
		}
		if err := writef(stdout, "%s\t%s\n", id, msg); err != nil {
			return 1
		}
	}
	return exit
}
