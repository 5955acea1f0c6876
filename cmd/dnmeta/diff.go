package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ilpack/dnmeta/metadata"
)

var diffFull bool

func init() {
	diffCmd.Flags().BoolVar(&diffFull, "full", false, "Compare definition payloads, not just identities")
}

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Structurally compare two containers",
	Long:  "Compare two metadata containers and exit non-zero when they differ. By default only entity identities are compared; --full also compares definitions, bodies and children.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadContainer(args[0])
		if err != nil {
			return err
		}
		b, err := loadContainer(args[1])
		if err != nil {
			return err
		}

		if (metadata.Comparer{Full: diffFull}).ContainersEqual(a, b) {
			color.Green("containers are equal")
			return nil
		}
		color.Red("containers differ")
		return fmt.Errorf("%s and %s are not structurally equal", args[0], args[1])
	},
}
