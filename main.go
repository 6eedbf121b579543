package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"drtp-file-transfer/drtp"
)

func main() {
	diag := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()

	cfg, err := parseArgs(os.Args[1:])
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := drtp.NewEventLog(os.Stdout, cfg.Debug)
	rt := drtp.NewRuntime(log)

	switch cfg.Mode {
	case ModeClient:
		rt.Run(func() error { return runClient(cfg, log) })
	case ModeServer:
		rt.Run(func() error { return runServer(cfg, log) })
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-rt.Done:
	case s := <-sig:
		diag.Info().Str("signal", s.String()).Msg("interrupted, shutting down")
		rt.Close()
		os.Exit(1)
	}
	rt.Join()
	rt.Close()
	if err != nil {
		diag.Error().Err(err).Msg("transfer failed")
		os.Exit(1)
	}
}

// parseArgs resolves the configuration from defaults, then the optional
// TOML file, then explicit flags, in that order of precedence.
func parseArgs(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("drtp", flag.ContinueOnError)
	client := fs.Bool("c", false, "run as client, sending a file")
	server := fs.Bool("s", false, "run as server, receiving a file")
	fs.StringVar(&cfg.File, "f", cfg.File, "file to send or write")
	fs.StringVar(&cfg.IP, "i", cfg.IP, "IP address to bind or connect to")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "UDP port")
	fs.IntVar(&cfg.Window, "w", cfg.Window, "sliding window size in packets")
	fs.IntVar(&cfg.Discard, "d", cfg.Discard, "seq number the server discards once (test aid)")
	configFile := fs.String("config", "", "location of an optional TOML config file")
	fs.BoolVar(&cfg.Debug, "v", cfg.Debug, "verbose event logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *configFile != "" {
		if err := LoadConfigFile(*configFile, &cfg); err != nil {
			return cfg, err
		}
		// Flags given on the command line beat the file. Re-apply only
		// the ones the user actually set.
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "f":
				cfg.File = f.Value.String()
			case "i":
				cfg.IP = f.Value.String()
			case "p":
				cfg.Port = atoiFlag(f)
			case "w":
				cfg.Window = atoiFlag(f)
			case "d":
				cfg.Discard = atoiFlag(f)
			case "v":
				cfg.Debug = f.Value.String() == "true"
			}
		})
	}

	if *client && *server {
		return cfg, fmt.Errorf("-c and -s are mutually exclusive")
	}
	if *client {
		cfg.Mode = ModeClient
	}
	if *server {
		cfg.Mode = ModeServer
	}

	return cfg, cfg.Validate()
}

func atoiFlag(f *flag.Flag) int {
	v, _ := f.Value.(flag.Getter).Get().(int)
	return v
}

func runClient(cfg Config, log *drtp.EventLog) error {
	src, err := os.Open(cfg.File)
	if err != nil {
		return errors.WithMessage(drtp.ErrSourceRead, err.Error())
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errors.WithMessage(drtp.ErrSourceRead, err.Error())
	}

	conn, err := drtp.Dial(cfg.Addr(), drtp.DefaultTimeout, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Infof("sending %s (%d bytes, %d chunks) to %s",
		cfg.File, info.Size(), drtp.ChunkCount(info.Size(), drtp.MaxPayloadSize), cfg.Addr())

	s := drtp.NewSender(conn, cfg.Window, log)
	return s.SendFile(src)
}

func runServer(cfg Config, log *drtp.EventLog) error {
	sink, err := os.Create(cfg.File)
	if err != nil {
		return errors.WithMessage(drtp.ErrSinkWrite, err.Error())
	}
	defer sink.Close()

	conn, err := drtp.Listen(cfg.Addr(), drtp.DefaultTimeout, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	r := drtp.NewReceiver(conn, cfg.Discard, log)
	return r.ReceiveFile(sink)
}
