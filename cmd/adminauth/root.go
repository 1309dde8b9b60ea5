package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	ExitCodeConfig  = 2
)

// configError marks failures caused by invalid configuration.
type configError struct{ err error }

func (e *configError) Error() string { return "configuration: " + e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adminauth",
		Short:         "Login, session and CAPTCHA service for the admin console",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "adminauth version %s\n" .Version}}`)
	root.PersistentFlags().String("env-file", "", "dotenv file to load before reading ADMINAUTH_* variables (default .env)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var ce *configError
		if errors.As(err, &ce) {
			return ExitCodeConfig
		}
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func envFiles(cmd *cobra.Command) []string {
	f, _ := cmd.Flags().GetString("env-file")
	if f == "" {
		return nil
	}
	return []string{f}
}
