package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burrowkit/burrow/core"
)

func init() {
	toolCmd := &cobra.Command{
		Use:   "tool",
		Short: "Inspect and run registered tools",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered tools",
		RunE:  runToolList,
	}

	run := &cobra.Command{
		Use:   "run [name] [json-args]",
		Short: "Run a tool directly",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runToolRun,
	}

	toolCmd.AddCommand(list, run)
	rootCmd.AddCommand(toolCmd)
}

func runToolList(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	for _, def := range app.orchestrator.Tools() {
		fmt.Printf("%s\t%s\n", def.Name, def.Description)
	}
	return nil
}

func runToolRun(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var raw json.RawMessage
	if len(args) > 1 {
		raw = json.RawMessage(args[1])
	}
	out, err := app.orchestrator.ExecuteTool(cmd.Context(), core.ExecContext{OwnerID: app.owner}, args[0], raw)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
