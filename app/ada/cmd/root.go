package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ravix/ada/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "ada",
	Short: "Voice-activated personal AI assistant",
	Long: `Ada is a voice-activated personal AI assistant. It listens for the wake
word, transcribes the command that follows, and carries it out: answering
questions, running shell commands, generating example code, building UI
components from images, and editing its own configuration, then speaking
each result back.`,
	PersistentPreRun: loadRootConfig,
	RunE:             runAssistant,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = config.Load()
}

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}
