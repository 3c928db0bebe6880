// Command lillec compiles a single lille source file to a target-machine
// instruction listing.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sanity-io/litter"
	"github.com/urfave/cli/v2"

	"github.com/baners123/lille/pkg/compiler"
)

func main() {
	app := &cli.App{
		Name:      "lillec",
		Usage:     "compile a lille source file",
		ArgsUsage: "<source-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "l", Usage: "write a .lis listing file alongside the source"},
			&cli.StringFlag{Name: "o", Usage: "output instruction file name (default: <source>.pal)"},
			&cli.BoolFlag{Name: "dump-ast", Usage: "dump the scope-close symbol table trace via litter instead of discarding it"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("lillec: %v", err))
		os.Exit(0)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one source file is required", 0)
	}
	srcPath := c.Args().Get(0)

	fullPath, err := filepath.Abs(srcPath)
	if err != nil {
		return cli.Exit(color.RedString("cannot resolve %s: %v", srcPath, err), 0)
	}
	parentDir := filepath.Dir(fullPath)

	source, err := os.ReadFile(fullPath)
	if err != nil {
		return cli.Exit(color.RedString("cannot read %s: %v", fullPath, err), 0)
	}

	start := time.Now()
	res, err := compiler.Compile(string(source))
	elapsed := time.Since(start)
	if err != nil {
		return cli.Exit(color.RedString("internal error: %v", err), 0)
	}

	base := strings.TrimSuffix(filepath.Base(fullPath), filepath.Ext(fullPath))

	if c.Bool("l") {
		listingPath := filepath.Join(parentDir, base+".lis")
		if err := os.WriteFile(listingPath, []byte(res.Listing), 0o644); err != nil {
			return cli.Exit(color.RedString("cannot write %s: %v", listingPath, err), 0)
		}
	}

	if c.Bool("dump-ast") {
		litter.Dump(res.SymbolDump)
	}

	if res.ErrorCount != 0 {
		fmt.Print(res.Listing)
		fmt.Println(color.RedString("%d error(s) found, no code generated", res.ErrorCount))
		return nil
	}

	outPath := c.String("o")
	if outPath == "" {
		outPath = filepath.Join(parentDir, base+".pal")
	}
	if err := os.WriteFile(outPath, []byte(res.Instructions), 0o644); err != nil {
		return cli.Exit(color.RedString("cannot write %s: %v", outPath, err), 0)
	}

	fmt.Println(color.GreenString("compiled %s -> %s (%s)", fullPath, outPath, elapsed))
	return nil
}
