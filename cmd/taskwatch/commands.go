package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aidar/taskflow/internal/client"
	"github.com/aidar/taskflow/internal/domain"
)

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := login(cmd)
			if err != nil {
				return err
			}

			projects, err := api.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tOWNER")
			for _, p := range projects {
				owner := ""
				if p.Owner != nil {
					owner = p.Owner.Username
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, owner)
			}
			return w.Flush()
		},
	}
}

func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks [projectId]",
		Short: "List tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			api, err := login(cmd)
			if err != nil {
				return err
			}

			tasks, err := api.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [projectId]",
		Short: "Follow a project's tasks in real time",
		Long: `Load a project's tasks and reprint them whenever another user creates,
updates or deletes a task in it. Reconnects automatically if the connection drops.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			api, err := login(cmd)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			syncer, err := client.NewSynchronizer(api, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			syncer.Cache().OnChange(func(_ int64, tasks []*domain.Task) {
				fmt.Fprintf(out, "\n--- project %d: %d task(s) ---\n", projectID, len(tasks))
				_ = printTasks(out, tasks)
			})

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := syncer.Mount(ctx, projectID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Watching, press Ctrl+C to stop...")

			<-ctx.Done()
			return syncer.Unmount()
		},
	}
}

func login(cmd *cobra.Command) (*client.APIClient, error) {
	server, _ := cmd.Flags().GetString("server")
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if username == "" || password == "" {
		return nil, fmt.Errorf("--username and --password are required")
	}

	api := client.NewAPIClient(server, nil)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := api.Login(ctx, username, password); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return api, nil
}

func parseProjectID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("project id must be a positive integer, got %q", raw)
	}
	return id, nil
}

func printTasks(out io.Writer, tasks []*domain.Task) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tVERSION")
	for _, t := range tasks {
		assignee := "-"
		if t.Assignee != nil {
			assignee = t.Assignee.Username
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", t.ID, t.Title, t.Status, t.Priority, assignee, t.Version)
	}
	return w.Flush()
}
