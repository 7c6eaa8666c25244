package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	absa "github.com/scttfrdmn/absa-patterns"
)

var maskCmd = &cobra.Command{
	Use:   "mask <dump.json|->",
	Short: "Show which token positions belong to the reviewed text",
	Args:  cobra.ExactArgs(1),
	RunE:  runMask,
}

func runMask(cmd *cobra.Command, args []string) error {
	f, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	dumps, err := absa.ReadExampleDumps(f)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for i, d := range dumps {
		mask, err := absa.TextTokensMask(d.Example())
		if err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		fmt.Fprintf(w, "EXAMPLE %d\tPOS\tTOKEN\tTEXT\n", i)
		for pos, tok := range d.Tokens {
			fmt.Fprintf(w, "\t%d\t%s\t%v\n", pos, tok, mask[pos])
		}
	}
	return w.Flush()
}
