package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kayz/tomo/internal/api"
	"github.com/kayz/tomo/internal/chat"
	"github.com/kayz/tomo/internal/tui"
)

var serverURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the onboarding chat client",
	Run:   runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&serverURL, "server", "", "Onboarding server URL (overrides config)")
}

func runChat(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	url := cfg.Client.ServerURL
	if serverURL != "" {
		url = serverURL
	}

	controller := chat.NewController(api.NewClient(url))
	program := tea.NewProgram(tui.NewModel(controller), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running chat UI: %v\n", err)
		os.Exit(1)
	}
}
