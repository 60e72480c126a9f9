package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/domainchat-dev/domainchat/pkg/archive"
	"github.com/domainchat-dev/domainchat/pkg/chat"
)

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Manage archived chat transcripts",
}

var transcriptsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived transcripts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := newArchiveStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		limit, _ := cmd.Flags().GetInt("limit")
		summaries, err := store.List(cmd.Context(), archive.ListOptions{Limit: limit})
		if err != nil {
			return err
		}

		if len(summaries) == 0 {
			fmt.Println("No archived transcripts.")
			return nil
		}
		for _, s := range summaries {
			fmt.Printf("%s  %s  %d messages\n", s.ExportDate.Format("2006-01-02 15:04"), s.SessionID, s.MessageCount)
		}
		return nil
	},
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print an archived transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := newArchiveStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		transcript, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		render := newRenderer()
		for _, turn := range transcript.Messages {
			switch turn.Kind {
			case chat.TurnUser:
				fmt.Printf("[%s] You: %s\n", turn.Timestamp.Format("15:04:05"), turn.Content)
			case chat.TurnAssistant:
				fmt.Printf("[%s] Assistant (%s):\n%s", turn.Timestamp.Format("15:04:05"), turn.ModelUsed, render(turn.Content))
			case chat.TurnError:
				fmt.Printf("[%s] Error: %s\n", turn.Timestamp.Format("15:04:05"), turn.Content)
			}
		}
		return nil
	},
}

var transcriptsRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete an archived transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := newArchiveStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted transcript %s.\n", args[0])
		return nil
	},
}

func init() {
	transcriptsLsCmd.Flags().Int("limit", 0, "Maximum number of transcripts to list (0 = all)")
	transcriptsCmd.AddCommand(transcriptsLsCmd, transcriptsShowCmd, transcriptsRmCmd)
	rootCmd.AddCommand(transcriptsCmd)
}
