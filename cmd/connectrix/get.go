package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getFlags struct {
	clientConfig
}

var getCmd = &cobra.Command{
	Use:   "get <connection-id>",
	Short: "Show a stored connection",
	Long:  `Show a stored connection's metadata and last test result. Credentials are never returned.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	addClientFlags(getCmd, &getFlags.clientConfig)
}

func runGet(cmd *cobra.Command, args []string) error {
	c, err := getFlags.newClient()
	if err != nil {
		return err
	}

	conn, err := c.GetConnection(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:           %s\n", conn.ID)
	fmt.Printf("User:         %s\n", conn.UserID)
	fmt.Printf("Integration:  %s\n", conn.IntegrationID)
	fmt.Printf("Auth method:  %s\n", conn.AuthMethodID)
	if conn.SchemeKey != "" {
		fmt.Printf("Scheme:       %s\n", conn.SchemeKey)
	}
	fmt.Printf("Has tokens:   %t\n", conn.HasTokens)
	if conn.LastTestStatus != "" {
		fmt.Printf("Last test:    %s (%s) at %s\n", conn.LastTestStatus, conn.LastTestMessage, conn.LastTestAt)
	}

	return nil
}
