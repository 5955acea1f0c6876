package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ilpack/dnmeta/metadata"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "dnmeta",
		Short: "Portable .NET metadata tooling",
		Long: `dnmeta works with portable metadata containers: inspect their contents,
convert between the JSON document and binary snapshot encodings, compare
two containers structurally, and check compact signature text.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				metadata.SetLogger(log)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(sigCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadContainer reads a container in either encoding, sniffing the format
// from the first byte: JSON documents start with '{', everything else is
// treated as a CBOR snapshot.
func loadContainer(path string) (*metadata.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && data[0] == '{' {
		md, err := metadata.DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return md, nil
	}
	md, err := metadata.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return md, nil
}
