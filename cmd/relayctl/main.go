package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"orbitrelay.dev/orbitlib/config"
	"orbitrelay.dev/orbitlib/connection/rpc"
	"orbitrelay.dev/orbitlib/connection/transporter"
	"orbitrelay.dev/orbitlib/connection/transporter/websocket"
	"orbitrelay.dev/orbitlib/logger"
)

const relayctlVersion = "$RELAYCTL_VERSION"

type options struct {
	configPath string
	relayUrl   string
	debug      bool
	reconnect  bool
	call       string
	params     string

	printVersion bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)

	var interruptedErr *InterruptedError
	if errors.As(err, &interruptedErr) {
		os.Exit(130)
	} else if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "relayctl: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if opts.printVersion {
		_, err := fmt.Fprintln(stdout, relayctlVersion)
		return err
	}

	settings, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.relayUrl != "" {
		settings.OrbitWsUrl = opts.relayUrl
	}

	log, err := createLogger(settings, opts.debug, stderr)
	if err != nil {
		return err
	}

	transportConfig, err := settings.TransportConfig()
	if err != nil {
		return err
	}

	// a tcp selection is rejected by the websocket transport before dialing
	if opts.call != "" {
		return callOnce(ctx, log, transportConfig, opts, stdout)
	}

	printer := &linePrinter{out: stdout}
	r := &relay{
		logger:    log,
		transport: websocket.New(log.GetComponentLogger("Websocket"), printer),
		config:    transportConfig,
		reconnect: opts.reconnect,
	}

	return r.run(ctx, readLines(stdin))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	flags := flag.NewFlagSet("relayctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.configPath, "config", "relayctl.yaml", "Path to the relay settings file")
	flags.StringVar(&opts.relayUrl, "url", "", "Relay URL, overrides the settings file")
	flags.BoolVar(&opts.debug, "debug", false, "Log debug output to stderr")
	flags.BoolVar(&opts.reconnect, "reconnect", false, "Reconnect with backoff whenever the relay drops the connection")
	flags.StringVar(&opts.call, "call", "", "Send a single request with this method, print the result and exit")
	flags.StringVar(&opts.params, "params", "", "JSON params for -call")
	flags.BoolVar(&opts.printVersion, "version", false, "Print current version of relayctl")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if opts.params != "" && !json.Valid([]byte(opts.params)) {
		return nil, errors.New("-params must be valid JSON")
	}

	return opts, nil
}

func createLogger(settings *config.Settings, debug bool, stderr io.Writer) (*logger.Logger, error) {
	options := &logger.Config{
		FilePath: settings.LogPath,
		LogLevel: logger.ToLogLevel(settings.LogLevel),
	}

	// stdout carries protocol lines, so console logs only ever go to stderr
	if debug {
		options.ConsoleWriters = []io.Writer{stderr}
		options.LogLevel = zerolog.DebugLevel
	}

	log, err := logger.New(options)
	if err != nil {
		return nil, err
	}
	log.AddVersion(relayctlVersion)
	return log, nil
}

func callOnce(ctx context.Context, log *logger.Logger, transportConfig transporter.Config, opts *options, stdout io.Writer) error {
	dispatcher := rpc.NewDispatcher(log, func(_ transporter.AppContext, notification rpc.Notification) {
		log.Debugf("Ignoring %s notification while waiting for %s", notification.Method, opts.call)
	})

	conn, err := websocket.New(log.GetComponentLogger("Websocket"), dispatcher).Connect(ctx, nil, transportConfig)
	if err != nil && ctx.Err() != nil {
		return &InterruptedError{}
	} else if err != nil {
		return err
	}
	defer func() {
		conn.Close()
		<-conn.Done()
	}()

	var params any
	if opts.params != "" {
		params = json.RawMessage(opts.params)
	}

	result, err := rpc.NewClient(conn).Call(ctx, opts.call, params)
	if err != nil && ctx.Err() != nil {
		return &InterruptedError{}
	} else if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, string(result))
	return err
}

// readLines feeds stdin into a channel that is closed at EOF
func readLines(stdin io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	return lines
}
