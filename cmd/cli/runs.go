package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hairizuanbinnoorazman/validation-agent/pipeline"
	"github.com/hairizuanbinnoorazman/validation-agent/run"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/spf13/cobra"
)

type runOptions struct {
	website       string
	input         string
	scenariosFile string
	authType      string
	authTimeout   int
	username      string
	async         bool
}

// buildRunRequest turns command flags into the run request body.
func buildRunRequest(opts runOptions) (pipeline.Request, error) {
	req := pipeline.Request{
		Input:   opts.input,
		Website: strings.TrimSpace(opts.website),
	}
	if req.Website == "" {
		return req, fmt.Errorf("--website is required")
	}

	if opts.scenariosFile != "" {
		scenarios, err := scenario.LoadFile(opts.scenariosFile)
		if err != nil {
			return req, err
		}
		for _, sc := range scenarios {
			if err := sc.Validate(); err != nil {
				return req, fmt.Errorf("scenario %q: %w", sc.ID, err)
			}
		}
		req.Scenarios = scenarios
	}

	if opts.authType != "" && opts.authType != string(pipeline.AuthNone) {
		req.AuthConfig = &pipeline.AuthConfigRequest{
			Type:     opts.authType,
			Timeout:  opts.authTimeout,
			Username: opts.username,
		}
	}
	return req, nil
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a validation run",
		Long: "Start a validation run against a website. Without --async the command waits " +
			"for the run to finish and prints its report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRunRequest(opts)
			if err != nil {
				return err
			}
			client := getClient()

			var query url.Values
			if opts.async {
				query = url.Values{"async": []string{"true"}}
			}
			body, err := client.Post("/api/v1/runs", query, req)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			if opts.async {
				var resp SubmittedRunResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					return fmt.Errorf("failed to parse response: %w", err)
				}
				printMessage(fmt.Sprintf("Run submitted: %s (status: %s)", resp.Run.ID, resp.Run.Status))
				if resp.AuthToken != "" {
					printMessage(fmt.Sprintf("Complete the login with: vactl auth complete --id %s --auth-token %s", resp.Run.ID, resp.AuthToken))
				}
				return nil
			}

			var resp pipeline.Response
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			printMessage(resp.FinalReport)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.website, "website", "", "Website URL to validate (required)")
	cmd.Flags().StringVar(&opts.input, "input", "", "What to validate, in plain language")
	cmd.Flags().StringVarP(&opts.scenariosFile, "scenarios", "f", "", "YAML or JSON scenario file; skips planning")
	cmd.Flags().StringVar(&opts.authType, "auth-type", "", "Authentication type: none, credentials or interactive")
	cmd.Flags().IntVar(&opts.authTimeout, "auth-timeout", 0, "Seconds to wait for a manual login")
	cmd.Flags().StringVar(&opts.username, "username", "", "Username recorded with credentials auth")
	cmd.Flags().BoolVar(&opts.async, "async", false, "Return immediately instead of waiting for the run")
	cmd.MarkFlagRequired("website")
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect validation runs",
	}

	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsGetCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var status string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if status != "" {
				query.Set("status", status)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			body, err := getClient().Get("/api/v1/runs", query)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var resp PaginatedResponse[run.Run]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "STATUS", "RESULT", "WEBSITE", "AUTH", "STARTED AT", "ENDED AT"}
			var rows [][]string
			for _, r := range resp.Items {
				rows = append(rows, []string{
					r.ID.String(),
					string(r.Status),
					orDash(r.OverallResult),
					r.Website,
					r.AuthType,
					formatTime(r.StartTime),
					formatTime(r.EndTime),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d of %d runs", len(resp.Items), resp.Total))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (created, running, success, failed)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func newRunsGetCmd() *cobra.Command {
	var id string
	var showReport bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a run by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getClient().Get(fmt.Sprintf("/api/v1/runs/%s", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var r run.Run
			if err := json.Unmarshal(body, &r); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			duration := "-"
			if r.Duration != nil {
				duration = fmt.Sprintf("%ds", *r.Duration)
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"ID", r.ID.String()},
				{"Status", string(r.Status)},
				{"Result", orDash(r.OverallResult)},
				{"Website", r.Website},
				{"Auth", r.AuthType},
				{"Failed Stage", orDash(r.FailedStage)},
				{"Error", orDash(r.Error)},
				{"Started At", formatTime(r.StartTime)},
				{"Ended At", formatTime(r.EndTime)},
				{"Duration", duration},
				{"Created At", r.CreatedAt.Format("2006-01-02 15:04:05")},
			}
			printTable(headers, rows)

			if showReport {
				if report, ok := r.Response["final_report"].(string); ok {
					printMessage("\n" + report)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Run ID (required)")
	cmd.Flags().BoolVar(&showReport, "report", false, "Print the final report")
	cmd.MarkFlagRequired("id")
	return cmd
}
