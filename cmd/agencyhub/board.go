package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"agencyhub/internal/client"
	"agencyhub/internal/pipeline"
)

type remote struct {
	api      string
	token    string
	email    string
	password string
}

func (r *remote) flags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&r.api, "api", "", "API base URL (default app.public_url)")
	cmd.PersistentFlags().StringVar(&r.token, "token", os.Getenv("AGENCYHUB_TOKEN"), "Session token")
	cmd.PersistentFlags().StringVar(&r.email, "email", "", "Login email, used when no token is given")
	cmd.PersistentFlags().StringVar(&r.password, "password", os.Getenv("AGENCYHUB_PASSWORD"), "Login password")
}

func (r *remote) connect(ctx context.Context, a *app) (*client.Client, error) {
	base := r.api
	if base == "" {
		base = a.cfg.App.PublicURL
	}
	c := client.New(base, r.token)
	if r.token == "" {
		if r.email == "" {
			return nil, fmt.Errorf("either --token or --email is required")
		}
		if _, err := c.Login(ctx, r.email, r.password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}
	return c, nil
}

func newBoardCmd(a *app) *cobra.Command {
	r := &remote{}
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect and rearrange a project pipeline through the API",
	}
	r.flags(cmd)

	var projectID string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the columns and tasks of a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := r.connect(cmd.Context(), a)
			if err != nil {
				return err
			}
			board, err := api.Board(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), board)
			return nil
		},
	}
	show.Flags().StringVar(&projectID, "project", "", "Project id")
	_ = show.MarkFlagRequired("project")

	var taskID, toColumn string
	var index int
	move := &cobra.Command{
		Use:   "move",
		Short: "Move a task to a column position and print the resulting board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			api, err := r.connect(ctx, a)
			if err != nil {
				return err
			}
			board, err := api.Board(ctx, projectID)
			if err != nil {
				return err
			}
			col, _, ok := board.FindTask(taskID)
			if !ok {
				return fmt.Errorf("task %s is not on project %s", taskID, projectID)
			}
			dest, err := resolveColumn(board, toColumn)
			if err != nil {
				return err
			}

			ctrl := pipeline.NewController(board, api, a.logger)
			if err := ctrl.MoveTask(ctx, taskID, board.Columns[col].ID, dest, index); err != nil {
				printBoard(cmd.ErrOrStderr(), ctrl.Board())
				return err
			}
			printBoard(cmd.OutOrStdout(), ctrl.Board())
			return nil
		},
	}
	move.Flags().StringVar(&projectID, "project", "", "Project id")
	move.Flags().StringVar(&taskID, "task", "", "Task id")
	move.Flags().StringVar(&toColumn, "to", "", "Destination column id or name")
	move.Flags().IntVar(&index, "index", 0, "Zero-based position in the destination column")
	for _, f := range []string{"project", "task", "to"} {
		_ = move.MarkFlagRequired(f)
	}

	cmd.AddCommand(show, move)
	return cmd
}

// resolveColumn accepts a column id or a case-insensitive column name.
func resolveColumn(b pipeline.Board, ref string) (string, error) {
	if _, ok := b.ColumnIndex(ref); ok {
		return ref, nil
	}
	for _, c := range b.Columns {
		if strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("no column %q on this board", ref)
}

func printBoard(w io.Writer, b pipeline.Board) {
	for _, col := range b.Columns {
		marker := ""
		if col.Final {
			marker = " (final)"
		}
		fmt.Fprintf(w, "%s%s [%s]\n", col.Name, marker, col.ID)
		for _, t := range col.Tasks {
			fmt.Fprintf(w, "  %d. %s [%s] %s\n", t.Position, t.Title, t.ID, t.Priority)
		}
	}
}
