package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wozlab/humanchat/internal/console"
	"github.com/wozlab/humanchat/pkg/logger"
	"github.com/wozlab/humanchat/server"
)

const serveLongDesc = `Start the humanchat server and the operator console.

The server exposes an OpenAI Chat Completions compatible API; each incoming
conversation is shown in the console, and the reply you type is streamed
back to the caller as if a model had produced it.

With --headless (or when stdout is not a terminal) no console is started
and every conversation is answered with the --canned text instead.

Examples:
  humanchat serve
  humanchat serve --listen :9090 --config humanchat.toml
  humanchat serve --headless --canned "The operator is away."`

const serveShortDesc = "Serve the chat API with a human operator console"

const defaultCannedAnswer = "This is a canned reply from the humanchat backend. " +
	"Attach an operator console to answer with a human."

type serveCommander struct {
	configPath string
	listen     string
	logLevel   string
	headless   bool
	canned     string
}

// NewServeCmd builds the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&cmder.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&cmder.headless, "headless", false, "Run without the operator console")
	cmd.Flags().StringVar(&cmder.canned, "canned", defaultCannedAnswer, "Answer used in headless mode")

	return cmd
}

func (c *serveCommander) run() error {
	cfg := server.DefaultConfig()
	if c.configPath != "" {
		loaded, err := server.LoadConfig(c.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.listen != "" {
		cfg.Listen = c.listen
	}

	headless := c.headless || !term.IsTerminal(int(os.Stdout.Fd()))

	log := logger.New(c.logLevel, os.Stderr)
	defer log.Sync()

	var collab server.Collaborator
	var cons *console.Console
	if headless {
		collab = console.Canned(c.canned)
	} else {
		// The console owns the terminal; keep logs off it.
		logFile, err := os.OpenFile("humanchat.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logFile.Close()
		log = logger.New(c.logLevel, logFile)

		cons = console.New(log)
		collab = cons
	}

	srv := server.New(cfg, collab, log)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	defer srv.Stop(5 * time.Second)

	if c.configPath != "" {
		stopWatch, err := srv.WatchConfig(c.configPath)
		if err != nil {
			log.Warn("config watching disabled", zap.Error(err))
		} else {
			defer stopWatch()
		}
	}

	if cons != nil {
		// The console blocks until the operator quits.
		return cons.Run()
	}

	log.Info("running headless", zap.String("addr", srv.Addr()))
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	return nil
}
