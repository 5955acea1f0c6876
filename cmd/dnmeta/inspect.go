package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ilpack/dnmeta/metadata"
)

var inspectTokens bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectTokens, "tokens", false, "List every token with its level")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Summarize a metadata container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := loadContainer(args[0])
		if err != nil {
			return err
		}

		mode := "indexed"
		if md.Options().Has(metadata.OptionNamedTokens) {
			mode = "named"
		}
		fmt.Printf("Tokens:  %s\n", mode)
		fmt.Printf("Types:   %d\n", md.TypeCount())
		fmt.Printf("Fields:  %d\n", md.FieldCount())
		fmt.Printf("Methods: %d\n", md.MethodCount())

		if !inspectTokens {
			return nil
		}
		heading := color.New(color.Bold)

		heading.Println("\ntypes")
		for _, tok := range md.TypeTokens() {
			entry, err := md.Type(tok)
			if err != nil {
				return err
			}
			fmt.Printf("  %-40s %-22s %s\n", tok, entry.Level, entry.Reference().QualifiedName())
		}
		heading.Println("\nfields")
		for _, tok := range md.FieldTokens() {
			entry, err := md.Field(tok)
			if err != nil {
				return err
			}
			fmt.Printf("  %-40s %-22s %s\n", tok, entry.Level, entry.Reference().Name)
		}
		heading.Println("\nmethods")
		for _, tok := range md.MethodTokens() {
			entry, err := md.Method(tok)
			if err != nil {
				return err
			}
			fmt.Printf("  %-40s %-22s %s\n", tok, entry.Level, entry.Reference().Name)
		}
		return nil
	},
}
