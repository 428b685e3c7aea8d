package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpreslar/connectrix/internal/api"
)

var testFlags struct {
	clientConfig
}

var testCmd = &cobra.Command{
	Use:   "test <connection-id>",
	Short: "Test a stored connection",
	Long: `Run a live connectivity test against the provider for a stored
connection and print the result. The connection's last test status is
updated on the server.`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)

	addClientFlags(testCmd, &testFlags.clientConfig)
}

func runTest(cmd *cobra.Command, args []string) error {
	c, err := testFlags.newClient()
	if err != nil {
		return err
	}

	outcome, err := c.TestConnection(args[0])
	if err != nil {
		return err
	}

	printOutcome(outcome)
	if !outcome.Success {
		return fmt.Errorf("connection test failed")
	}
	return nil
}

func printOutcome(outcome *api.TestOutcomeResponse) {
	status := "FAILED"
	if outcome.Success {
		status = "OK"
	}
	fmt.Printf("Result:   %s\n", status)
	fmt.Printf("Message:  %s\n", outcome.Message)
	if outcome.StatusCode != nil {
		fmt.Printf("Status:   %d\n", *outcome.StatusCode)
	}
	fmt.Printf("Duration: %dms\n", outcome.DurationMS)
	if outcome.Request != nil {
		fmt.Printf("Request:  %s %s\n", outcome.Request.Method, outcome.Request.URL)
	}
	if outcome.Error != nil {
		fmt.Printf("Error:    %s", outcome.Error.Kind)
		if outcome.Error.Detail != "" {
			fmt.Printf(" (%s)", outcome.Error.Detail)
		}
		fmt.Println()
	}
}
