package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/auth/providers"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/config"
	"github.com/examwatch/proctor-admin/internal/risk"
	"github.com/examwatch/proctor-admin/internal/secrets"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Print the exam sessions whose summary exceeds the cheating threshold.",
	Long: "Signs in to the exam backend, resolves the cheating flag of every session and prints the flagged ones.\n" +
		"Credentials come from Vault when VAULT_ADDR and VAULT_KV_PATH are set, otherwise --email and a password prompt.",
	Args: cobra.NoArgs,
	RunE: runRisk,
}

func init() {
	riskCmd.Flags().String("email", "", "administrator email (when Vault is not configured)")
	riskCmd.Flags().String("student", "", "only sessions of this student id")
	riskCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

type sessionLister interface {
	ListSessions(ctx context.Context, creds auth.Credentials, studentID string) ([]backend.Session, error)
}

type riskReportOptions struct {
	StudentID string
	JSON      bool
}

type riskReportRow struct {
	SessionID string    `json:"sessionId"`
	StudentID string    `json:"studentId"`
	CustomID  string    `json:"studentCustomId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
}

type riskReport struct {
	Checked int             `json:"checked"`
	Flagged []riskReportRow `json:"flagged"`
}

func runRisk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	email, _ := cmd.Flags().GetString("email")
	studentID, _ := cmd.Flags().GetString("student")
	asJSON, _ := cmd.Flags().GetBool("json")

	client, err := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		return err
	}
	login, err := riskLogin(ctx, cfg, email, cmd.ErrOrStderr())
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	creds, err := providers.NewBackendProvider(client, cfg.TokenLifetime).Authenticate(ctx, login.Email, login.Password)
	if err != nil {
		return &exitError{code: 3, err: fmt.Errorf("sign in: %w", err)}
	}

	return writeRiskReport(ctx, cmd.OutOrStdout(), client, risk.NewAggregator(client, nil), creds, riskReportOptions{
		StudentID: studentID,
		JSON:      asJSON,
	})
}

func riskLogin(ctx context.Context, cfg config.Config, email string, prompt io.Writer) (secrets.AdminLogin, error) {
	if cfg.Vault.Enabled() {
		vault, err := secrets.NewVault(secrets.VaultOptions{
			Address: cfg.Vault.Addr,
			Token:   cfg.Vault.Token,
			KVMount: cfg.Vault.KVMount,
			KVPath:  cfg.Vault.KVPath,
		})
		if err != nil {
			return secrets.AdminLogin{}, err
		}
		return vault.AdminLogin(ctx)
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return secrets.AdminLogin{}, errors.New("--email is required when Vault is not configured")
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return secrets.AdminLogin{}, errors.New("password prompt needs a terminal; configure Vault for non-interactive runs")
	}
	fmt.Fprintf(prompt, "Password for %s: ", email)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return secrets.AdminLogin{}, fmt.Errorf("read password: %w", err)
	}
	return secrets.AdminLogin{Email: email, Password: string(password)}, nil
}

func writeRiskReport(ctx context.Context, out io.Writer, lister sessionLister, agg *risk.Aggregator, creds auth.Credentials, opts riskReportOptions) error {
	sessions, err := lister.ListSessions(ctx, creds, strings.TrimSpace(opts.StudentID))
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	flagged, err := agg.Flagged(ctx, creds, sessions, risk.NewMemoryFlags())
	if err != nil {
		return err
	}

	report := riskReport{Checked: len(sessions), Flagged: make([]riskReportRow, 0, len(flagged))}
	for _, s := range flagged {
		report.Flagged = append(report.Flagged, riskReportRow{
			SessionID: s.ID,
			StudentID: s.StudentID,
			CustomID:  s.StudentCustomID,
			Name:      s.Name,
			Email:     s.Email,
			StartedAt: s.StartedAt.Time,
			Duration:  s.Duration.String(),
		})
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if len(report.Flagged) == 0 {
		_, err := fmt.Fprintf(out, "No flagged sessions (%d checked).\n", report.Checked)
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTUDENT\tNAME\tEMAIL\tSTARTED\tDURATION")
	for _, row := range report.Flagged {
		started := "-"
		if !row.StartedAt.IsZero() {
			started = row.StartedAt.UTC().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row.SessionID, row.CustomID, row.Name, row.Email, started, row.Duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d of %d sessions flagged.\n", len(report.Flagged), report.Checked)
	return err
}
