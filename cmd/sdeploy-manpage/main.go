package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/sdeploy/cmd/sdeploy"
	"github.com/arthur-debert/sdeploy/internal/version"
)

func main() {
	rootCmd := sdeploy.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "SDEPLOY",
		Section: "1",
		Source:  "sdeploy " + version.Version,
		Manual:  "sdeploy manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
