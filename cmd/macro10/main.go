package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/japanoise/numparse"
	"github.com/spf13/cobra"

	"gomacro10/pkg/asm"
	"gomacro10/pkg/fetch"
	"gomacro10/pkg/pdp10"
)

var (
	loadAddr string
	options  string
	outPath  string
)

var rootCmd = &cobra.Command{
	Use:   "macro10 source...",
	Short: "Assemble MACRO-10 source into a 36-bit word image",
	Long: `Macro10 assembles a useful subset of DEC MACRO-10 assembly into a
36-bit word image loadable by an emulator. Sources may be local files or
http(s) URLs; HTML pages wrapping the source in <PRE> are unwrapped.

The output is an octal listing, one "address word" pair per line, followed
by a "start address" line when the program declared one with END.`,

	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		load := 0
		if loadAddr != "" {
			v, err := numparse.UNumParse(loadAddr)
			if err != nil {
				return fmt.Errorf("bad load address %q: %v", loadAddr, err)
			}
			load = int(v)
		}

		machine := pdp10.NewMachine()
		machine.Output = os.Stderr

		a := asm.New(machine, load, options)
		if err := a.AssembleURLs(&fetch.HTTPLoader{}, strings.Join(args, ";")); err != nil {
			// the assembler already printed the diagnostic
			return fmt.Errorf("assembly failed")
		}

		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		for i, w := range a.Image() {
			fmt.Fprintf(out, "%06o\t%012o\n", load+i, w)
		}
		if start, ok := a.Start(); ok {
			fmt.Fprintf(out, "start\t%06o\n", start)
		}
		return nil
	},
}

func main() {
	rootCmd.Flags().StringVar(&loadAddr, "load", "", "load address (any radix, e.g. 0x200 or 512)")
	rootCmd.Flags().StringVar(&options, "options", "", "option letters (p = preprocess only)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "listing output path (default stdout)")
	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
