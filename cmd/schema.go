package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/reel-cli/reel/resolver"
	"github.com/reel-cli/reel/rule"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolP("classification", "c", false, "Schema of `reel classify --json` output")
	schemaCmd.Flags().BoolP("resolvers", "r", false, "Schema of `reel resolvers list --json` output")
	schemaCmd.MarkFlagsMutuallyExclusive("classification", "resolvers")
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of structured command output",
	Long:  "Print the JSON schema of `reel resolve --json` output, or of another command's with a flag.",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			return filepath.Base(t.PkgPath()) + "." + t.Name()
		}

		var schema *jsonschema.Schema
		switch {
		case lo.Must(cmd.Flags().GetBool("classification")):
			schema = reflector.Reflect([]rule.Classification{})
		case lo.Must(cmd.Flags().GetBool("resolvers")):
			schema = reflector.Reflect([]resolver.Descriptor{})
		default:
			schema = reflector.Reflect([]resolveOutput{})
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(schema))
	},
}
