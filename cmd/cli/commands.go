package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/movledger/internal/adapter/http/dto"
)

const apiPrefix = "/api/v1"

var errInconsistent = errors.New("ledger is inconsistent")

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	rootCmd := &cobra.Command{
		Use:          "movledger-cli",
		Short:        "Movement ledger CLI tool",
		Long:         `A command line interface for interacting with the movledger API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the movledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	client := func() *apiClient { return newAPIClient(baseURL, timeout) }

	rootCmd.AddCommand(
		accountCmd(client),
		movementCmd(client),
		statementCmd(client),
		ledgerCmd(client),
	)
	return rootCmd
}

func accountCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var req dto.CreateAccountRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := client().do(cmd.Context(), http.MethodPost, apiPrefix+"/accounts/", requestOptions{body: req}, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	createCmd.Flags().StringVar(&req.Number, "number", "", "Account number")
	createCmd.Flags().StringVar(&req.Type, "type", "checking", "Account type (checking or savings)")
	createCmd.Flags().StringVar(&req.InitialBalance, "initial-balance", "0", "Opening balance")
	createCmd.Flags().StringVar(&req.CustomerID, "customer", "", "Owning customer ID")
	_ = createCmd.MarkFlagRequired("number")
	_ = createCmd.MarkFlagRequired("customer")

	getCmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := client().do(cmd.Context(), http.MethodGet, apiPrefix+"/accounts/"+url.PathEscape(args[0]), requestOptions{}, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	var active bool
	statusCmd := &cobra.Command{
		Use:   "status <account-id>",
		Short: "Activate or deactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			body := dto.SetAccountStatusRequest{Active: &active}
			if err := client().do(cmd.Context(), http.MethodPatch, apiPrefix+"/accounts/"+url.PathEscape(args[0])+"/status", requestOptions{body: body}, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	statusCmd.Flags().BoolVar(&active, "active", true, "Whether the account accepts movements")

	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the current balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var balance dto.BalanceResponse
			if err := client().do(cmd.Context(), http.MethodGet, apiPrefix+"/accounts/"+url.PathEscape(args[0])+"/balance", requestOptions{}, &balance); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), balance)
		},
	}

	cmd.AddCommand(createCmd, getCmd, statusCmd, balanceCmd)
	return cmd
}

func movementCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movement",
		Short: "Movement operations",
	}

	var (
		req            dto.CreateMovementRequest
		timestamp      string
		idempotencyKey string
	)
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Record a deposit or withdrawal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if timestamp != "" {
				ts, err := time.Parse(time.RFC3339Nano, timestamp)
				if err != nil {
					return fmt.Errorf("invalid --timestamp: %w", err)
				}
				req.Timestamp = &ts
			}
			var movement dto.MovementResponse
			opts := requestOptions{body: req, idempotencyKey: idempotencyKey}
			if err := client().do(cmd.Context(), http.MethodPost, apiPrefix+"/movements/", opts, &movement); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), movement)
		},
	}
	recordCmd.Flags().StringVar(&req.AccountID, "account", "", "Account ID")
	recordCmd.Flags().StringVar(&req.Kind, "kind", "", "Movement kind (deposit or withdrawal)")
	recordCmd.Flags().StringVar(&req.Amount, "amount", "", "Positive amount")
	recordCmd.Flags().StringVar(&timestamp, "timestamp", "", "Backdated RFC3339 timestamp")
	recordCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	_ = recordCmd.MarkFlagRequired("account")
	_ = recordCmd.MarkFlagRequired("kind")
	_ = recordCmd.MarkFlagRequired("amount")

	getCmd := &cobra.Command{
		Use:   "get <movement-id>",
		Short: "Show a movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var movement dto.MovementResponse
			if err := client().do(cmd.Context(), http.MethodGet, apiPrefix+"/movements/"+url.PathEscape(args[0]), requestOptions{}, &movement); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), movement)
		},
	}

	var (
		limit, offset int
		asJSON        bool
	)
	listCmd := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List an account's movements, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", strconv.Itoa(offset))

			var list dto.ListMovementsResponse
			path := apiPrefix + "/accounts/" + url.PathEscape(args[0]) + "/movements"
			if err := client().do(cmd.Context(), http.MethodGet, path, requestOptions{query: query}, &list); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printMovements(cmd.OutOrStdout(), list.Movements)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	reverseCmd := &cobra.Command{
		Use:   "reverse <movement-id>",
		Short: "Record the compensating movement for a movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var movement dto.MovementResponse
			if err := client().do(cmd.Context(), http.MethodPost, apiPrefix+"/movements/"+url.PathEscape(args[0])+"/reverse", requestOptions{}, &movement); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), movement)
		},
	}

	cmd.AddCommand(recordCmd, getCmd, listCmd, reverseCmd)
	return cmd
}

func statementCmd(client func() *apiClient) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "statement <customer-id>",
		Short: "Generate a customer statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("from", from)
			query.Set("to", to)

			var statement dto.StatementResponse
			path := apiPrefix + "/customers/" + url.PathEscape(args[0]) + "/statement"
			if err := client().do(cmd.Context(), http.MethodGet, path, requestOptions{query: query}, &statement); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), statement)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start of the range (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "End of the range, inclusive (YYYY-MM-DD or RFC3339)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func ledgerCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [account-id]",
		Short: "Check ledger consistency for one account or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := apiPrefix + "/ledger/verify"
			var result any = &dto.ReconciliationReportResponse{}
			if len(args) == 1 {
				path = apiPrefix + "/accounts/" + url.PathEscape(args[0]) + "/verify"
				result = &dto.ReconciliationResponse{}
			}

			err := client().do(cmd.Context(), http.MethodGet, path, requestOptions{}, result)
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Consistency check FAILED")
				return errInconsistent
			}
			if err != nil {
				return err
			}

			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			return nil
		},
	}

	cmd.AddCommand(verifyCmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMovements(w io.Writer, movements []*dto.MovementResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tTIMESTAMP\tKIND\tAMOUNT\tBALANCE")
	for _, m := range movements {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			m.Sequence,
			truncate(m.ID, 12),
			m.Timestamp.UTC().Format(time.RFC3339),
			m.Kind,
			m.Amount.String(),
			m.ResultingBalance.String(),
		)
	}
	return tw.Flush()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
