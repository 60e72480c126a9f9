package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/domainchat-dev/domainchat/internal/backend"
	"github.com/domainchat-dev/domainchat/internal/config"
	"github.com/domainchat-dev/domainchat/pkg/chat"
	"github.com/domainchat-dev/domainchat/pkg/observability"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("domain", "", "Starting domain (general, hr, medical, legal, finance)")
	chatCmd.Flags().String("model", "", "Starting model ID")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client, err := newBackendClient(cfg)
	if err != nil {
		return err
	}

	observability.InitMetrics()
	if cfg.Metrics.Port > 0 {
		obsServer := observability.NewServer(cfg.Metrics.Port)
		go func() {
			if err := obsServer.Start(); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
		defer func() { _ = obsServer.Shutdown(context.Background()) }()
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()
	line.SetCtrlCAborts(true)

	domain := chat.Domain(cfg.Chat.DefaultDomain)
	if v, _ := cmd.Flags().GetString("domain"); v != "" {
		domain = chat.Domain(v)
	}
	model := cfg.Chat.DefaultModel
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		model = v
	}

	controller, err := chat.NewController(chat.Config{
		Backend:        backend.NewInstrumented(client),
		DefaultDomain:  domain,
		DefaultModel:   model,
		RequestTimeout: cfg.API.Timeout.Std(),
		Confirm:        confirmPrompt(line),
	})
	if err != nil {
		return err
	}

	render := newRenderer()

	info := controller.CurrentDomain().Info()
	fmt.Printf("%s %s - %s\n", info.Icon, info.Label, info.Description)
	fmt.Printf("Model: %s | Session: %s\n", controller.CurrentModel(), controller.SessionID())
	fmt.Println(`Type a message, or /help for commands.`)

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := handleCommand(cmd.Context(), controller, cfg, input); quit {
				return nil
			}
			continue
		}

		if err := controller.Submit(cmd.Context(), input); err != nil {
			switch {
			case errors.Is(err, chat.ErrEmptyMessage):
				// Nothing to send.
			case errors.Is(err, chat.ErrRequestInFlight):
				fmt.Println("Still waiting for the previous reply.")
			default:
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		printLatestReply(controller, render)
		observability.SetHistoryLength(len(controller.Turns()))
	}
}

// confirmPrompt adapts the liner prompt into the controller's confirmation
// capability.
func confirmPrompt(line *liner.State) chat.ConfirmFunc {
	return func(reason string) bool {
		answer, err := line.Prompt(reason + " [y/N] ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}

// newRenderer returns a markdown renderer for assistant replies, falling
// back to plain text if the terminal renderer cannot be constructed.
func newRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return func(s string) string { return s }
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return out
	}
}

// printLatestReply shows the turn appended by the last submission.
func printLatestReply(controller *chat.Controller, render func(string) string) {
	turns := controller.Turns()
	if len(turns) == 0 {
		return
	}
	last := turns[len(turns)-1]
	switch last.Kind {
	case chat.TurnAssistant:
		fmt.Print(render(last.Content))
		fmt.Printf("  (%s)\n", last.ModelUsed)
	case chat.TurnError:
		fmt.Println(last.Content)
	}
}

// handleCommand dispatches a slash command. It returns true when the REPL
// should exit.
func handleCommand(ctx context.Context, controller *chat.Controller, cfg *config.Config, input string) bool {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		printHelp()
	case "/domain":
		changeDomain(controller, args)
	case "/model":
		changeModel(controller, args)
	case "/clear":
		controller.ClearChat()
		observability.RecordSessionReset("clear")
		fmt.Printf("Started a new conversation. Session: %s\n", controller.SessionID())
	case "/stats":
		s := controller.Stats()
		fmt.Printf("User: %d  Assistant: %d  Errors: %d\n", s.UserMessages, s.AssistantMessages, s.ErrorMessages)
	case "/export":
		exportTranscript(ctx, controller, cfg)
	case "/quit", "/exit":
		return true
	default:
		fmt.Printf("Unknown command %s. Try /help.\n", cmd)
	}
	return false
}

func printHelp() {
	fmt.Println(`Commands:
  /domain [name]   Show or switch the active domain
  /model [id]      Show or switch the active model
  /clear           Start a new conversation
  /stats           Show message counts for this session
  /export          Export the transcript to the archive and a file
  /quit            Exit`)
}

func changeDomain(controller *chat.Controller, args []string) {
	if len(args) == 0 {
		for _, d := range chat.Domains() {
			marker := " "
			if d == controller.CurrentDomain() {
				marker = "*"
			}
			info := d.Info()
			fmt.Printf("%s %s %-10s %s\n", marker, info.Icon, d, info.Description)
		}
		return
	}

	changed, err := controller.ChangeDomain(chat.Domain(args[0]))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if changed {
		observability.RecordSessionReset("domain_change")
		info := controller.CurrentDomain().Info()
		fmt.Printf("Switched to %s %s. Session: %s\n", info.Icon, info.Label, controller.SessionID())
	}
}

func changeModel(controller *chat.Controller, args []string) {
	if len(args) == 0 {
		for _, m := range controller.Models() {
			marker := " "
			if m.ID == controller.CurrentModel() {
				marker = "*"
			}
			fmt.Printf("%s %s (%s) - %s\n", marker, m.Name, m.Provider, m.ID)
		}
		return
	}

	if err := controller.ChangeModel(args[0]); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Model set to %s.\n", controller.CurrentModel())
}

func exportTranscript(ctx context.Context, controller *chat.Controller, cfg *config.Config) {
	transcript := controller.Export()
	if len(transcript.Messages) == 0 {
		fmt.Println("Nothing to export.")
		return
	}

	store, err := newArchiveStore(cfg)
	if err != nil {
		fmt.Printf("Error opening archive: %v\n", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Save(ctx, transcript); err != nil {
		fmt.Printf("Error archiving transcript: %v\n", err)
		return
	}

	data, err := transcript.JSON()
	if err != nil {
		fmt.Printf("Error serializing transcript: %v\n", err)
		return
	}
	name := transcript.Filename()
	if err := os.WriteFile(name, data, 0600); err != nil {
		fmt.Printf("Error writing %s: %v\n", name, err)
		return
	}
	fmt.Printf("Exported %d messages to %s (and the archive).\n", len(transcript.Messages), name)
}
