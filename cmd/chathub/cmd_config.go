package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/chathub/internal/config"
	"github.com/user/chathub/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configValidateCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		values, err := config.ListValues(cfg, true)
		if err != nil {
			return fmt.Errorf("list config: %w", err)
		}
		for _, k := range config.SortedKeys(values) {
			if k == "jobs" {
				for i, j := range cfg.Jobs {
					fmt.Fprintf(os.Stdout, "jobs[%d] = %s\n", i, j)
				}
				continue
			}
			fmt.Fprintf(os.Stdout, "%s = %v\n", k, values[k])
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := config.GetValue(cfgPath, args[0])
		if err != nil {
			return err
		}
		if config.IsSecretKey(args[0]) {
			val = config.MaskValue(val)
		}
		fmt.Fprintln(os.Stdout, val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Values are parsed as JSON when possible.
Scheduled jobs are replaced as a whole:

  chathub config set jobs '[{"name":"digest","schedule":"0 9 * * *","kind":"action_digest","chat":"telegram:42"}]'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "jobs" {
			jobs, err := config.ParseJobs(args[1])
			if err != nil {
				return err
			}
			if problems := jobProblems(jobs); len(problems) > 0 {
				return reportProblems(problems)
			}
		}
		if err := config.SetValue(cfgPath, args[0], args[1]); err != nil {
			return err
		}
		display := args[1]
		if config.IsSecretKey(args[0]) {
			display = "***"
		}
		fmt.Fprintf(os.Stdout, "Set %s = %s\n", args[0], display)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, including job schedules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		problems := append(cfg.Validate(), jobProblems(cfg.Jobs)...)
		if len(problems) > 0 {
			return reportProblems(problems)
		}
		fmt.Fprintf(os.Stdout, "%s: ok (%d jobs)\n", cfgPath, len(cfg.Jobs))
		return nil
	},
}

// jobProblems runs the scheduler's checks, which include cron syntax.
func jobProblems(jobs []config.Job) []string {
	var problems []string
	for _, j := range schedulerJobs(jobs) {
		if err := scheduler.Validate(j); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems
}

func reportProblems(problems []string) error {
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, "  -", p)
	}
	return fmt.Errorf("%d configuration problem(s)", len(problems))
}
