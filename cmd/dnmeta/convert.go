package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var convertFormat string

func init() {
	convertCmd.Flags().StringVar(&convertFormat, "to", "", "Output format: json or cbor (default: inferred from the output extension)")
}

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a container between JSON and snapshot encodings",
	Long:  "Read a metadata container in either encoding and write it out as a JSON document or a binary snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := loadContainer(args[0])
		if err != nil {
			return err
		}

		format := convertFormat
		if format == "" {
			switch {
			case strings.HasSuffix(args[1], ".json"):
				format = "json"
			case strings.HasSuffix(args[1], ".cbor"):
				format = "cbor"
			default:
				return fmt.Errorf("cannot infer output format from %q, pass --to", args[1])
			}
		}

		var out []byte
		switch format {
		case "json":
			out, err = md.EncodeJSON()
		case "cbor":
			out, err = md.EncodeSnapshot()
		default:
			return fmt.Errorf("unknown format %q (want json or cbor)", format)
		}
		if err != nil {
			return err
		}
		return os.WriteFile(args[1], out, 0o644)
	},
}
