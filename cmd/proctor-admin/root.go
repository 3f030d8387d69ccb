package main

import (
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/examwatch/proctor-admin/internal/logging"
)

// annotationStructuredLog marks commands whose output is the JSON/text slog stream.
const annotationStructuredLog = "structured-log"

var rootCmd = &cobra.Command{
	Use:           "proctor-admin",
	Short:         "Admin dashboard for exam proctoring sessions, bookings and catalog.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		structured := commandUsesStructuredLogging(cmd)
		setCommandExecutionContext(commandExecutionContext{
			CommandPath:       cmd.CommandPath(),
			UsesStructuredLog: structured,
		})
		if !structured {
			return nil
		}
		_, err := logging.BootstrapFromEnv(logging.BootstrapOptions{
			Command: cmd.CommandPath(),
			Writer:  os.Stdout,
		})
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, riskCmd)
}

func structuredLogAnnotation() map[string]string {
	return map[string]string{annotationStructuredLog: "true"}
}

func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationStructuredLog] == "true" {
			return true
		}
	}
	return false
}

type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var (
	commandExecMu  sync.RWMutex
	commandExecCtx commandExecutionContext
)

func setCommandExecutionContext(ctx commandExecutionContext) {
	commandExecMu.Lock()
	defer commandExecMu.Unlock()
	commandExecCtx = ctx
}

func resetCommandExecutionContext() {
	setCommandExecutionContext(commandExecutionContext{})
}

func currentCommandExecutionContext() commandExecutionContext {
	commandExecMu.RLock()
	defer commandExecMu.RUnlock()
	return commandExecCtx
}
