package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "taskwatch",
		Short:   "Terminal client for the task tracker with live project updates",
		Version: Version,
	}

	rootCmd.PersistentFlags().StringP("server", "s", envOr("TASKFLOW_SERVER", "http://localhost:3000"), "API base URL")
	rootCmd.PersistentFlags().StringP("username", "u", envOr("TASKFLOW_USERNAME", ""), "Username")
	rootCmd.PersistentFlags().StringP("password", "p", envOr("TASKFLOW_PASSWORD", ""), "Password")

	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
