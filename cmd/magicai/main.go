package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"magicai/internal/api"
	"magicai/internal/chat"
	"magicai/internal/config"
	"magicai/internal/devserver"
	"magicai/internal/logging"
	"magicai/internal/ui"
)

var (
	// Global flags
	configPath string
	baseURL    string
	verbose    bool

	// serve flags
	serveAddr string

	cfg    *config.Config
	logger *zap.Logger
)

// errReported marks a failure the console sink has already printed, an
// error reply or the empty prompt alert, so main only sets the exit code.
var errReported = errors.New("already reported")

var rootCmd = &cobra.Command{
	Use:   "magicai",
	Short: "Terminal chat client for the Magic text generation service",
	Long: `magicai sends prompts to a text generation backend and shows the
replies as a chat log. Each prompt is sent on its own; the backend never
sees earlier turns.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		// The interactive chat logs to a file of its own
		if cmd == cmd.Root() {
			return nil
		}

		logger, err = logging.New(cfg.Logging.Level, verbose, "stderr")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Send one prompt and print the reply",
	Long: `Sends the arguments, joined by spaces, as a single prompt. The reply
goes to stdout; an error reply goes to stderr and exits with status 1.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the backend's model name, version and description",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local development backend",
	Long: `Serves POST /generate, GET /model-info and GET /health. Replies echo the
prompt back, which is enough to exercise the client end to end.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&baseURL, "url", "u", "", "Backend base URL (or set "+config.BaseURLEnv+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: devserver.addr from config)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads --config when given, where a missing file is an error,
// and applies --url on top.
func loadConfig() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr != nil {
			return nil, fmt.Errorf("config: %w", statErr)
		}
		c, err = config.LoadFrom(configPath)
	} else {
		c, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if baseURL != "" {
		c.Server.BaseURL = strings.TrimSpace(baseURL)
	}
	return c, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newController(sink chat.Sink, log *zap.Logger) *chat.Controller {
	client := api.NewClientWithBaseURL(cfg.Server.BaseURL)
	return chat.NewController(client, sink,
		chat.WithLogger(log),
		chat.WithTimeout(cfg.RequestTimeout()),
	)
}

func runChat(cmd *cobra.Command, args []string) error {
	fileLogger, err := logging.NewFile(cfg.Logging.Level, verbose, cfg.LogFile())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = fileLogger.Sync() }()

	fileLogger.Info("starting chat",
		zap.String("base_url", cfg.Server.BaseURL),
		zap.Duration("timeout", cfg.RequestTimeout()),
	)

	sink := ui.NewChannelSink(64)
	defer sink.Close()
	ctrl := newController(sink, fileLogger)

	p := tea.NewProgram(
		ui.New(commandContext(cmd), cfg, ctrl, sink),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}

func runAsk(cmd *cobra.Command, args []string) error {
	out := newConsoleSink(cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctrl := newController(out, logger)

	msg, err := ctrl.SubmitQuery(commandContext(cmd), strings.Join(args, " "))
	if errors.Is(err, chat.ErrEmptyPrompt) {
		return fmt.Errorf("%w: %w", errReported, err)
	}
	if err != nil {
		return err
	}
	if msg.Status == chat.StatusError {
		return errReported
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	out := newConsoleSink(cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctrl := newController(out, logger)

	if err := ctrl.LoadModelInfo(commandContext(cmd)); err != nil {
		return fmt.Errorf("model info from %s: %w", cfg.Server.BaseURL, err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.DevServer.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := devserver.New(cfg.DevServer, devserver.EchoGenerator{}, logger)
	return srv.ListenAndServe(commandContext(cmd), addr)
}
