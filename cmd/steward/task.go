package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/steward/pkg/models"
)

var (
	taskAddID   string
	taskAddPath string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage task records",
	Long: `Manage the durable task records deliverable work links to.

Deliverable work is refused until it references a task that resolves here.
Tasks live in the project task store under .steward/.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task record",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")

		root, err := workingDir()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		id := taskAddID
		if id == "" {
			id = nextTaskID(store)
		}
		path := taskAddPath
		if path == "" {
			path = "tasks/" + slugify(title) + ".md"
		}

		task := &models.TaskRecord{ID: id, Title: title, Path: path}
		if err := store.Create(task); err != nil {
			return err
		}
		color.Green("✓ created %s (%s)", task.ID, task.Path)
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a task record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workingDir()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		task, err := store.Resolve(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("id:      %s\n", task.ID)
		fmt.Printf("title:   %s\n", task.Title)
		fmt.Printf("path:    %s\n", task.Path)
		fmt.Printf("status:  %s\n", task.Status)
		fmt.Printf("created: %s\n", task.CreatedAt.Format("2006-01-02 15:04"))
		if task.CompletedAt != nil {
			fmt.Printf("done:    %s\n", task.CompletedAt.Format("2006-01-02 15:04"))
		}
		for _, link := range task.Links {
			fmt.Printf("link:    %s\n", link)
		}
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <ref>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workingDir()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		task, err := store.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := store.UpdateStatus(task.ID, models.TaskDone); err != nil {
			return err
		}
		color.Green("✓ %s done", task.ID)
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddID, "id", "", "Explicit task id (default: next TASK-n)")
	taskAddCmd.Flags().StringVar(&taskAddPath, "path", "", "Vault-relative note path (default: tasks/<slug>.md)")
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDoneCmd)
}

// nextTaskID finds the first unused TASK-n id.
func nextTaskID(store interface {
	Get(id string) (*models.TaskRecord, error)
}) string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("TASK-%d", n)
		if _, err := store.Get(id); err != nil {
			return id
		}
	}
}

func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
