package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/burrowkit/burrow/engine"
	"github.com/burrowkit/burrow/provider"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the agent",
		Long: "Send one message, or start an interactive session when no message\n" +
			"is given. Responses stream to stdout as they are generated.",
		RunE: runChat,
	}

	cmd.Flags().String("conversation", "", "Continue an existing conversation id")
	cmd.Flags().Bool("no-memory", false, "Skip memory recall for this turn")
	cmd.Flags().Bool("no-tools", false, "Do not advertise tools to the model")

	rootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	conversationID, _ := cmd.Flags().GetString("conversation")
	noMemory, _ := cmd.Flags().GetBool("no-memory")
	noTools, _ := cmd.Flags().GetBool("no-tools")

	turn := func(history []provider.Message) (string, error) {
		result, err := app.orchestrator.ChatStream(cmd.Context(), engine.ChatRequest{
			OwnerID:        app.owner,
			ConversationID: conversationID,
			Messages:       history,
			Model:          viper.GetString("provider.model"),
			Temperature:    float32(viper.GetFloat64("provider.temperature")),
			WithMemory:     !noMemory,
			WithTools:      !noTools,
		}, func(fragment string) error {
			_, err := fmt.Print(fragment)
			return err
		})
		if err != nil {
			return "", err
		}
		fmt.Println()
		conversationID = result.ConversationID
		return result.Content, nil
	}

	if len(args) > 0 {
		_, err := turn([]provider.Message{{Role: "user", Content: strings.Join(args, " ")}})
		return err
	}

	// Interactive session: keep the turn history client-side, the way the
	// HTTP collaborator would.
	var history []provider.Message
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("burrow chat (ctrl-d to quit)")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		history = append(history, provider.Message{Role: "user", Content: line})
		reply, err := turn(history)
		if err != nil {
			return err
		}
		history = append(history, provider.Message{Role: "assistant", Content: reply})
	}
}
