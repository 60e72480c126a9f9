package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the foundation models the backend can serve",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := newBackendClient(cfg)
		if err != nil {
			return err
		}

		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}

		if len(models) == 0 {
			fmt.Println("No models available.")
			return nil
		}
		for _, m := range models {
			streaming := ""
			if m.ResponseStreamingSupported {
				streaming = " [streaming]"
			}
			fmt.Printf("%-45s %s (%s)%s\n", m.ModelID, m.ModelName, m.ProviderName, streaming)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
