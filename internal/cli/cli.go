// Package cli wires configuration, storage and the board into the planner
// command tree.
package cli

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"planner/internal/config"
	"planner/internal/storage"
	"planner/internal/task"
	"planner/internal/ui"
	"planner/internal/view"
)

// Execute runs the command line with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRoot(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func NewRoot(stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "planner",
		Short:         "A single-user task tracker",
		Long:          "planner keeps a task list in SQLite or JSON and opens an interactive board when run without a subcommand.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrCreate(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			closeLog, err := tuiLogging(cfg.LogFile)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer closeLog()

			board, repo, err := openBoard(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := ui.Run(board, cfg); err != nil {
				return fmt.Errorf("error running program: %w", err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", config.ResolveConfigPath(), "Path to the TOML config file")

	log.SetOutput(stderr)
	cmd.AddCommand(newListCmd(stdout, &configPath))
	cmd.AddCommand(newExportCmd(stdout, &configPath))
	cmd.AddCommand(newImportCmd(stdout, &configPath))
	return cmd
}

func newListCmd(stdout io.Writer, configPath *string) *cobra.Command {
	var (
		title  string
		tag    string
		status string
		sortBy string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrCreate(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if strings.EqualFold(strings.TrimSpace(status), view.StatusAll) {
				status = view.StatusAll
			} else if status != "" {
				s, err := task.ParseStatus(status)
				if err != nil {
					return err
				}
				status = string(s)
			}
			if sortBy == "" {
				sortBy = cfg.DefaultSort
			}
			key, err := view.ParseSortKey(sortBy)
			if err != nil {
				return err
			}

			repo, err := storage.Open(cfg.Backend, cfg.StorePath())
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer repo.Close()
			all, err := repo.All()
			if err != nil {
				return err
			}

			tasks := view.Apply(all, view.Filter{Title: title, Tag: tag, Status: status}, key)
			printTasks(stdout, tasks, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Only tasks whose title contains this text")
	cmd.Flags().StringVar(&tag, "tag", "", "Only tasks whose tag contains this text")
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (not-started, in-progress, done or all)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by due, priority, status or id")
	return cmd
}

func newExportCmd(stdout io.Writer, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every task to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, repo, err := loadBoard(*configPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := board.Export(args[0])
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "Exported %d tasks to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd(stdout io.Writer, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Add every row of a CSV file as a new task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, repo, err := loadBoard(*configPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := board.Import(args[0])
			if err != nil {
				if n > 0 {
					log.Printf("imported %d tasks before failing", n)
				}
				return fmt.Errorf("failed to import: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "Imported %d tasks from %s\n", n, args[0])
			return nil
		},
	}
}

func loadBoard(configPath string) (*view.Board, storage.Repository, error) {
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return openBoard(cfg)
}

// openBoard opens the configured store and loads it into a board with the
// configured default sort and status filter.
func openBoard(cfg config.Config) (*view.Board, storage.Repository, error) {
	repo, err := storage.Open(cfg.Backend, cfg.StorePath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	key, err := view.ParseSortKey(cfg.DefaultSort)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	board, err := view.NewBoard(repo, key)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	if err := board.Reload(); err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	if cfg.DefaultStatus != "" && cfg.DefaultStatus != view.StatusAll {
		board.SetFilter(view.Filter{Status: cfg.DefaultStatus})
	}
	return board, repo, nil
}

// tuiLogging keeps log output off the terminal while the board owns it.
func tuiLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, config.AppName)
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}

func printTasks(w io.Writer, tasks []task.Task, now time.Time) {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(w, "No tasks.")
		return
	}
	_, _ = fmt.Fprintf(w, "%-5s %-12s %-7s %-11s %-12s %s\n", "ID", "STATUS", "PRIO", "DUE", "TAG", "TITLE")
	for _, t := range tasks {
		due := t.Due
		if t.Overdue(now) {
			due += "!"
		}
		_, _ = fmt.Fprintf(w, "%-5d %-12s %-7s %-11s %-12s %s\n", t.ID, t.Status, t.Priority, due, t.Tag, t.Title)
	}
}
