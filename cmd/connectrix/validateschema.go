package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpreslar/connectrix/internal/conntest"
	"github.com/kpreslar/connectrix/internal/models"
)

var validateSchemaCmd = &cobra.Command{
	Use:   "validate-schema <file>",
	Short: "Validate an auth schema document",
	Long: `Validate an auth schema JSON document without contacting a server.

Checks that every {{name}} placeholder in the schema's additional fields
resolves to a declared field, and suggests the closest declared name for
likely typos.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateSchema,
}

func init() {
	rootCmd.AddCommand(validateSchemaCmd)
}

func runValidateSchema(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}

	var schema models.AuthSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return fmt.Errorf("parse schema file: %w", err)
	}

	result := conntest.ValidateAuthSchema(&schema)
	if result.Valid {
		fmt.Println("Schema is valid.")
		return nil
	}

	for _, issue := range result.Issues {
		fmt.Printf("%s: field %q: %s", issue.AuthMethodID, issue.Field, issue.Message)
		if issue.Suggestion != "" {
			fmt.Printf(" (did you mean %q?)", issue.Suggestion)
		}
		fmt.Println()
	}
	return fmt.Errorf("schema has %d issue(s)", len(result.Issues))
}
