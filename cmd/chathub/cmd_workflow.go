package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/chathub/internal/state"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowListCmd, workflowShowCmd, workflowAddCmd, workflowRemoveCmd,
		workflowEnableCmd, workflowDisableCmd, workflowValidateCmd)

	f := workflowAddCmd.Flags()
	f.StringP("file", "f", "", "YAML file holding a single workflow definition")
	f.String("name", "", "workflow name")
	f.String("trigger", "", "trigger type (incoming_message, keyword_match, sender_match, platform_match, time_based, sentiment_match)")
	f.StringSlice("keywords", nil, "keywords for keyword_match")
	f.StringSlice("senders", nil, "senders for sender_match")
	f.StringSlice("platforms", nil, "platforms for platform_match")
	f.StringSlice("sentiments", nil, "sentiments for sentiment_match")
	f.Int("start-hour", 0, "start hour for time_based")
	f.Int("end-hour", 0, "end hour for time_based")
	f.String("action", "", "action type (auto_reply, suggest_reply, notification, categorize, forward, schedule_reminder)")
	f.String("message", "", "message for auto_reply or schedule_reminder")
	f.StringSlice("suggestions", nil, "suggestions for suggest_reply")
	f.String("priority", "", "priority for notification")
	f.Bool("sound", false, "sound for notification")
	f.String("category", "", "category for categorize")
	f.String("destination", "", "destination for forward")
	f.Int64("delay", 0, "delay in milliseconds for schedule_reminder")
	f.Bool("disabled", false, "add the workflow disabled")
}

func definitionStore() *state.DefinitionStore {
	cfg := loadConfig()
	return state.NewDefinitionStore(cfg.WorkflowsPath())
}

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Manage workflows in the definitions file",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom workflows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := definitionStore().List()
		if err != nil {
			return fmt.Errorf("list workflows: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTRIGGER\tACTIONS\tENABLED\tSOURCE")
		for _, wf := range workflow.Builtins() {
			def := wf.Definition()
			printDefinition(w, &def, "builtin")
		}
		for _, def := range defs {
			printDefinition(w, def, "file")
		}
		return w.Flush()
	},
}

func printDefinition(w *tabwriter.Writer, def *workflow.Definition, source string) {
	trigger := ""
	if def.Trigger != nil {
		trigger = def.Trigger.Type
	}
	actions := make([]string, len(def.Actions))
	for i, a := range def.Actions {
		actions[i] = a.Type
	}
	enabled := def.Enabled == nil || *def.Enabled
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%s\n",
		def.ID, def.Name, trigger, strings.Join(actions, ","), enabled, source)
}

var workflowShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a workflow definition as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := types.WorkflowID(args[0])
		var def *workflow.Definition
		for _, wf := range workflow.Builtins() {
			if wf.ID == id {
				d := wf.Definition()
				def = &d
			}
		}
		if def == nil {
			var err error
			if def, err = definitionStore().Get(id); err != nil {
				return err
			}
		}
		out, err := yaml.Marshal(def)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
		return nil
	},
}

var workflowAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom workflow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := definitionFromFlags(cmd)
		if err != nil {
			return err
		}
		id, err := definitionStore().Add(def)
		if err != nil {
			return reportInvalid(err)
		}
		fmt.Fprintf(os.Stdout, "Workflow %q added as %s.\n", def.Name, id)
		return nil
	},
}

func definitionFromFlags(cmd *cobra.Command) (*workflow.Definition, error) {
	f := cmd.Flags()
	if path, _ := f.GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var def workflow.Definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &def, nil
	}

	def := &workflow.Definition{}
	def.Name, _ = f.GetString("name")
	if disabled, _ := f.GetBool("disabled"); disabled {
		enabled := false
		def.Enabled = &enabled
	}

	if kind, _ := f.GetString("trigger"); kind != "" {
		t := &workflow.TriggerSpec{Type: kind}
		t.Keywords, _ = f.GetStringSlice("keywords")
		t.Senders, _ = f.GetStringSlice("senders")
		t.Platforms, _ = f.GetStringSlice("platforms")
		t.Sentiments, _ = f.GetStringSlice("sentiments")
		t.StartHour, _ = f.GetInt("start-hour")
		t.EndHour, _ = f.GetInt("end-hour")
		def.Trigger = t
	}

	if kind, _ := f.GetString("action"); kind != "" {
		a := workflow.ActionSpec{Type: kind}
		a.Message, _ = f.GetString("message")
		a.Suggestions, _ = f.GetStringSlice("suggestions")
		a.Priority, _ = f.GetString("priority")
		a.Sound, _ = f.GetBool("sound")
		a.Category, _ = f.GetString("category")
		a.Destination, _ = f.GetString("destination")
		a.Delay, _ = f.GetInt64("delay")
		def.Actions = append(def.Actions, a)
	}
	return def, nil
}

// reportInvalid prints every violated rule of a validation failure.
func reportInvalid(err error) error {
	var verr *workflow.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for _, e := range verr.Errors {
		fmt.Fprintln(os.Stderr, "  -", e)
	}
	return fmt.Errorf("workflow is invalid (%d problems)", len(verr.Errors))
}

var workflowRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a custom workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := definitionStore().Remove(types.WorkflowID(args[0])); err != nil {
			return fmt.Errorf("remove workflow: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Workflow %s removed.\n", args[0])
		return nil
	},
}

var workflowEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a custom workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := definitionStore().SetEnabled(types.WorkflowID(args[0]), true); err != nil {
			return fmt.Errorf("enable workflow: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Workflow %s enabled.\n", args[0])
		return nil
	},
}

var workflowDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a custom workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := definitionStore().SetEnabled(types.WorkflowID(args[0]), false); err != nil {
			return fmt.Errorf("disable workflow: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Workflow %s disabled.\n", args[0])
		return nil
	},
}

var workflowValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a definitions file (default: the configured one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := definitionStore()
		if len(args) == 1 {
			store = state.NewDefinitionStore(args[0])
		}
		defs, err := store.List()
		if err != nil {
			return err
		}

		bad := 0
		for i, def := range defs {
			errs := workflow.Validate(def)
			if len(errs) == 0 {
				continue
			}
			bad++
			fmt.Fprintf(os.Stdout, "workflow #%d %q (%s):\n", i+1, def.Name, def.ID)
			for _, e := range errs {
				fmt.Fprintln(os.Stdout, "  -", e)
			}
		}
		if bad > 0 {
			return fmt.Errorf("%d of %d workflows are invalid", bad, len(defs))
		}
		fmt.Fprintf(os.Stdout, "%s: %d workflows OK.\n", store.Path(), len(defs))
		return nil
	},
}
