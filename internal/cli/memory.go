package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/burrowkit/burrow/memory"
)

func init() {
	remember := &cobra.Command{
		Use:   "remember [text]",
		Short: "Store a long-term memory",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRemember,
	}
	remember.Flags().String("id", "", "Memory id (replaces an existing memory with the same id)")

	recall := &cobra.Command{
		Use:   "recall [query]",
		Short: "Search memories by semantic similarity",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRecall,
	}
	recall.Flags().IntP("limit", "l", memory.DefaultRecallLimit, "Max results")

	forget := &cobra.Command{
		Use:   "forget [id]",
		Short: "Delete a memory by id",
		Args:  cobra.ExactArgs(1),
		RunE:  runForget,
	}

	rootCmd.AddCommand(remember, recall, forget)
}

func runRemember(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	id, _ := cmd.Flags().GetString("id")
	id, err = app.memory.Remember(cmd.Context(), app.owner, id, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runRecall(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	results, err := app.memory.Recall(cmd.Context(), app.owner, strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no memories found")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s\t%.3f\t%s\n", r.ID, r.Similarity, r.Text)
	}
	return nil
}

func runForget(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.memory.Forget(cmd.Context(), app.owner, args[0]); err != nil {
		return err
	}
	fmt.Println("forgotten")
	return nil
}
