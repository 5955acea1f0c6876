package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilpack/dnmeta/metadata"
)

var sigCmd = &cobra.Command{
	Use:   "sig <text>",
	Short: "Check compact signature text",
	Long:  "Parse a compact-grammar signature and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct, err := metadata.Parse(args[0])
		if err != nil {
			return err
		}
		s, err := metadata.Format(ct)
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	},
}
