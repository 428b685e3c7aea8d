package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpreslar/connectrix/internal/adminauth"
	"github.com/kpreslar/connectrix/internal/db"
)

var keygenFlags struct {
	dbPath string
	label  string
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create a new admin API key",
	Long: `Create a new admin API key for authenticating against the API server.

The key is printed once and only its hash is stored; there is no way to
recover a lost key.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVar(&keygenFlags.dbPath, "db", getEnv("CONNECTRIX_DB", "connectrix.db"), "database path")
	keygenCmd.Flags().StringVar(&keygenFlags.label, "label", "", "optional label for the key")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	database, err := db.Open(keygenFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	store := db.NewStore(database)

	displayKey, prefix, hash, err := adminauth.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("generate API key: %w", err)
	}

	var label *string
	if keygenFlags.label != "" {
		label = &keygenFlags.label
	}
	if _, err := store.CreateAPIKey(context.Background(), prefix, hash, label); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}

	fmt.Println("=============================================================")
	fmt.Println("API KEY CREATED (save this, it will not be shown again):")
	fmt.Println(displayKey)
	fmt.Println("=============================================================")

	return nil
}
