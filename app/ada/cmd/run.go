package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/ravix/ada/internal/action"
	"github.com/ravix/ada/internal/assistant"
	"github.com/ravix/ada/internal/config"
	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/speech"
	"github.com/ravix/ada/internal/telemetry"
	"github.com/ravix/ada/internal/transport"
)

var liveTranscription bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the voice assistant loop",
	Long: `Starts the assistant: it listens continuously for the wake word,
transcribes the command that follows, carries it out, and speaks the result.
Say the exit phrase to stop.`,
	RunE: runAssistant,
}

func init() {
	runCmd.Flags().BoolVar(&liveTranscription, "live", false, "Stream audio to the live transcription API instead of per-utterance uploads")
	rootCmd.AddCommand(runCmd)
}

func runAssistant(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := setupContext()

	// Settings file overrides take effect at startup too
	settings, err := loadSettingsOverrides()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{Endpoint: cfg.TelemetryEndpoint})
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(ctx); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	// Language models
	openaiProvider := createOpenAIProvider(cfg.OpenAIAPIKey)
	gateway := createGateway(cfg, openaiProvider)
	classifier := intent.NewClassifier(openaiProvider)

	// Speech input
	recorder, err := speech.NewRecorder()
	if err != nil {
		return err
	}
	defer recorder.Close()

	var listener assistant.CommandSource
	if liveTranscription {
		listener = speech.NewLiveListener(recorder.StreamFrames, speech.NewLiveTranscriber(cfg.DeepgramAPIKey, ""), cfg.WakeWord)
	} else {
		deepgramClient := transport.NewClient(map[string]string{
			"Authorization": "Token " + cfg.DeepgramAPIKey,
		}, cfg.RequestTimeout)
		transcriber := speech.NewDeepgramTranscriber(deepgramClient, "")
		listener = speech.NewListener(recorder, transcriber, cfg.WakeWord)
	}

	// Speech output
	elevenClient := transport.NewClient(map[string]string{
		"xi-api-key": cfg.ElevenAPIKey,
	}, cfg.RequestTimeout)
	synthesizer := speech.NewElevenLabsSynthesizer(elevenClient, cfg.VoiceID)
	player := speech.NewBeepPlayer()

	// Action handlers
	registry := action.NewRegistry(
		action.NewShellCommandHandler(),
		action.NewEditFileHandler(),
		action.NewExampleCodeHandler(nil),
		action.NewComponentFromImageHandler(),
		action.NewConfigureHandler(),
		action.NewQuestionHandler(),
		action.NewSmallTalkHandler(),
	)

	actionCtx := &action.Context{
		Text:          gateway,
		JSON:          openaiProvider,
		Vision:        openaiProvider,
		Settings:      settings,
		SettingsPath:  cfg.SettingsFile,
		AssistantName: cfg.AssistantName,
		CompanionName: cfg.CompanionName,
		ShellTimeout:  cfg.ShellTimeout,
		OnSettingsChanged: func(s *config.Settings) {
			if s.Model != "" {
				gateway.SetModel(s.Model)
			}
			if s.VoiceID != "" {
				synthesizer.SetVoice(s.VoiceID)
			}
		},
	}

	log.Printf("Starting %s. Say %q followed by a command.", cfg.AssistantName, cfg.WakeWord)

	a := assistant.New(listener, classifier, registry, actionCtx, synthesizer, player, tel)
	return a.Run(ctx)
}
