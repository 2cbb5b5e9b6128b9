package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage manual logins for interactive runs",
	}

	cmd.AddCommand(newAuthCompleteCmd())
	return cmd
}

func newAuthCompleteCmd() *cobra.Command {
	var id, authToken string

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Signal that the manual login for a run is finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getClient().Post(
				fmt.Sprintf("/api/v1/runs/%s/auth/complete", id),
				nil,
				CompleteAuthRequest{Token: authToken},
			)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var resp SuccessResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			printMessage(resp.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Run ID (required)")
	cmd.Flags().StringVar(&authToken, "auth-token", "", "Completion token returned when the run was submitted")
	cmd.MarkFlagRequired("id")
	return cmd
}
