package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage individual tasks",
}

var (
	taskResponse string
	taskJSON     bool
)

var taskDoneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			res, err := services.Tasks.MarkDone(cmd.Context(), args[0], taskResponse)
			if err != nil {
				return MapError(fmt.Errorf("failed to complete task: %w", err))
			}
			if taskJSON {
				return printJSON(res)
			}
			fmt.Printf("Task %s is %s.\n", res.Task.ID, renderTaskStatus(res.Task.Status))
			for _, a := range res.Awarded {
				fmt.Printf("  %s %s\n", badgeStyle.Render("★ "+a.Title), mutedStyle.Render(a.Description))
			}
			return nil
		})
	},
}

var taskSkipCmd = &cobra.Command{
	Use:   "skip <task>",
	Short: "Skip a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			res, err := services.Tasks.MarkSkip(cmd.Context(), args[0], taskResponse)
			if err != nil {
				return MapError(fmt.Errorf("failed to skip task: %w", err))
			}
			if taskJSON {
				return printJSON(res)
			}
			fmt.Printf("Task %s is %s.\n", res.Task.ID, renderTaskStatus(res.Task.Status))
			if res.Adjustment != nil {
				printAdjustment(res.Adjustment)
			}
			return nil
		})
	},
}

var taskRescheduleCmd = &cobra.Command{
	Use:   "reschedule <task> <YYYY-MM-DD>",
	Short: "Move a task to another date as a new PENDING task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		newDate, err := clock.ParseDate(args[1])
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		return withServices(func(services *wiring.AppServices) error {
			res, err := services.Tasks.Reschedule(cmd.Context(), args[0], newDate)
			if err != nil {
				return MapError(fmt.Errorf("failed to reschedule task: %w", err))
			}
			if taskJSON {
				return printJSON(res)
			}
			fmt.Printf("Task %s rescheduled to %s (day %d) as %s.\n",
				res.Original.ID, clock.FormatDate(res.Clone.DueDate), res.Clone.DayNumber, res.Clone.ID)
			fmt.Println(mutedStyle.Render("Allowed events: " + strings.Join(res.Clone.Status.ValidEvents(), ", ")))
			return nil
		})
	},
}

var taskTodayCmd = &cobra.Command{
	Use:   "today <user>",
	Short: "List the tasks due on the user's local today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(services *wiring.AppServices) error {
			tasks, err := services.Tasks.ListToday(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			if taskJSON {
				return printJSON(tasks)
			}
			fmt.Println(taskTable(tasks))
			return nil
		})
	},
}

func init() {
	taskDoneCmd.Flags().StringVarP(&taskResponse, "response", "r", "", "Free-text response recorded on the task")
	taskSkipCmd.Flags().StringVarP(&taskResponse, "response", "r", "", "Free-text response recorded on the task")

	for _, c := range []*cobra.Command{taskDoneCmd, taskSkipCmd, taskRescheduleCmd, taskTodayCmd} {
		c.Flags().BoolVar(&taskJSON, "json", false, "Output in JSON format")
		taskCmd.AddCommand(c)
	}

	RootCmd.AddCommand(taskCmd)
}
