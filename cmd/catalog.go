package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [type]",
	Short: "Print the built-in phase catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cats := catalog.All()
		if len(args) == 1 {
			t, err := assessment.ParseType(args[0])
			if err != nil {
				return err
			}
			c, err := catalog.Get(t)
			if err != nil {
				return err
			}
			cats = []assessment.Catalog{c}
		}

		out := cmd.OutOrStdout()
		for i, c := range cats {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printCatalog(out, c)
		}
		return nil
	},
}

func printCatalog(w io.Writer, c assessment.Catalog) {
	fmt.Fprintf(w, "%s (%d phases)\n", strings.ToUpper(string(c.Type)), c.Len())
	fmt.Fprintln(w, strings.Repeat("─", 72))
	for i, p := range c.Phases {
		fmt.Fprintf(w, "%d. %s\n", i+1, p.Title)
		for _, q := range p.Questions {
			req := " "
			if q.Required {
				req = "*"
			}
			fmt.Fprintf(w, "   %s %-24s  %-14s  %s\n", req, q.ID, q.Type, q.Label)
			if q.Validation != "" {
				fmt.Fprintf(w, "     %-24s  %-14s  %s\n", "", "", q.Validation)
			}
			if len(q.Options) > 0 {
				vals := make([]string, len(q.Options))
				for j, o := range q.Options {
					vals[j] = o.Value
				}
				fmt.Fprintf(w, "     %-24s  %-14s  %s\n", "", "", strings.Join(vals, " | "))
			}
		}
	}
}
