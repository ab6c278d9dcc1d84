package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/artifex/backend/internal/config"
	"github.com/zhouzirui/artifex/backend/internal/logging"
	"github.com/zhouzirui/artifex/backend/internal/model/studio"
	"github.com/zhouzirui/artifex/backend/internal/service/generation"
	studioService "github.com/zhouzirui/artifex/backend/internal/service/studio"
)

var (
	apiKeyFlag  string
	timeoutFlag time.Duration
	verboseFlag bool
)

// rootCmd drives one in-process studio session from the terminal.
var rootCmd = &cobra.Command{
	Use:   "studioctl",
	Short: "Run studio workflows against the image generation service",
	Long: `studioctl runs the same workflow controller the API server uses, against a
single in-memory session, so each tool can be exercised without a browser.

Examples:
  studioctl generate --prompt "a ceramic mug on a desk" --count 2 --enhance
  studioctl packshot --image mug.png --bg "#F5F5F5" --shadow
  studioctl lifestyle --image mug.png --prompt "sunlit kitchen counter"
  studioctl erase --image mug.png --mask canvas.png
  studioctl enhance --prompt "red sneaker"`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Generation service API key (defaults to BRIA_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 2*time.Minute, "Overall request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log workflow transitions")

	rootCmd.AddCommand(generateCmd, packshotCmd, lifestyleCmd, eraseCmd, enhanceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		if raw := studioService.RawBody(err); len(raw) > 0 {
			fmt.Fprintln(os.Stderr, mutedStyle.Render(string(raw)))
		}
		os.Exit(1)
	}
}

// workspace bundles a controller with the collaborators commands need.
type workspace struct {
	ctrl       *studioService.Controller
	downloader *generation.Downloader
}

// newWorkspace loads configuration and returns a controller whose session
// already holds the API key.
func newWorkspace() (*workspace, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("配置加载失败: %w", err)
	}

	level := "warn"
	if verboseFlag {
		level = "debug"
	}
	logger, err := logging.NewLogger("development", level)
	if err != nil {
		return nil, err
	}
	logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	client := generation.NewClient(generation.Options{
		BaseURL:        cfg.Studio.BaseURL,
		ModelVersion:   cfg.Studio.ModelVersion,
		RequestTimeout: cfg.Studio.RequestTimeout,
		Logger:         &logger,
	})
	downloader := generation.NewDownloader(generation.DownloaderOptions{
		RequestTimeout: cfg.Studio.RequestTimeout,
		MaxBytes:       cfg.Studio.DownloadMaxBytes,
		Logger:         &logger,
	})

	apiKey := apiKeyFlag
	if apiKey == "" {
		apiKey = cfg.Studio.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key missing: pass --api-key or set BRIA_API_KEY")
	}

	session := studio.NewSession(fmt.Sprintf("cli-%d", time.Now().UnixNano()), apiKey, time.Now().UTC())
	ctrl := studioService.NewController(session, studioService.Dependencies{
		Generator:  client,
		Downloader: downloader,
		Logger:     &logger,
	})
	return &workspace{ctrl: ctrl, downloader: downloader}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeoutFlag)
}
