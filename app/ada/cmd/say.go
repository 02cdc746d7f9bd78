package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravix/ada/internal/config"
	"github.com/ravix/ada/internal/speech"
	"github.com/ravix/ada/internal/transport"
)

var sayCmd = &cobra.Command{
	Use:   "say [text]",
	Short: "Speak a line of text through the configured voice",
	Long:  `Synthesizes the given text through the configured voice and plays it. Useful for checking the speech output path.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSay,
}

func init() {
	rootCmd.AddCommand(sayCmd)
}

func runSay(cmd *cobra.Command, args []string) error {
	// A voice set through the configure workflow applies here too
	if _, err := loadSettingsOverrides(); err != nil {
		return err
	}
	if cfg.ElevenAPIKey == "" {
		return &config.Error{Variable: "ELEVEN_API_KEY"}
	}
	if cfg.VoiceID == "" {
		return &config.Error{Variable: "ELEVENLABS_VOICE_ID"}
	}

	ctx := setupContext()

	elevenClient := transport.NewClient(map[string]string{
		"xi-api-key": cfg.ElevenAPIKey,
	}, cfg.RequestTimeout)
	synthesizer := speech.NewElevenLabsSynthesizer(elevenClient, cfg.VoiceID)

	audio, err := synthesizer.Synthesize(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return speech.NewBeepPlayer().Play(audio)
}
