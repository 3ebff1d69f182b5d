package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/patterns"
	"github.com/autoproof/autoproof/pkg/regulatory"
)

func newPatternsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the built-in pattern matching rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher := patterns.NewMatcher(logger.NewNopLogger())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tSEVERITY\tCONFIDENCE\tCODE ONLY")
			for _, rule := range matcher.Rules() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%t\n",
					rule.Name, rule.Category, rule.Severity, rule.Confidence, rule.CodeOnly)
			}
			return w.Flush()
		},
	}
}

func newRegulationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regulations",
		Short: "List the regulation families in the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REGULATION\tSECTION\tTITLE")
			for _, regulation := range regulatory.Regulations() {
				for _, clause := range regulatory.Clauses(regulation) {
					fmt.Fprintf(w, "%s\t%s\t%s\n", regulation, clause.Section, clause.Title)
				}
			}
			return w.Flush()
		},
	}
}
