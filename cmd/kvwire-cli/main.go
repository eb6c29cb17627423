// Command kvwire-cli is an interactive client for wire-protocol
// key-value servers.
//
// It opens a single managed connection and provides a REPL in which any
// server command can be typed directly. The connection survives server
// restarts: in-flight commands are retried with backoff and the REPL
// reports recovery through the connection event log.
//
// Usage:
//
//	kvwire-cli [flags]
//
// Flags:
//
//	-host string        Server host (default "127.0.0.1")
//	-port int           Server port (default 6379)
//	-db int             Database index to SELECT after connecting
//	-username string    Username for authentication
//	-password string    Password for authentication
//	-name string        Client connection name
//	-config string      YAML configuration file path
//	-tls                Connect over TLS
//	-insecure           Skip TLS certificate verification
//	-max-retries int    Per-command reconnect budget (-1 disables retries)
//	-health-check dur   Health check interval (0 disables)
//	-log-file string    Append connection events to this file (CBOR)
//	-version            Print the version and exit
//
// Examples:
//
//	# Connect to a local server
//	kvwire-cli
//
//	# Authenticated TLS connection to database 2
//	kvwire-cli -host cache.internal -tls -password s3cret -db 2
//
//	# Record connection events for later inspection
//	kvwire-cli -log-file events.cbor -health-check 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kvwire/kvwire-go/pkg/connection"
	"github.com/kvwire/kvwire-go/pkg/log"
	"github.com/kvwire/kvwire-go/pkg/transport"
	"github.com/kvwire/kvwire-go/pkg/version"
)

type cliFlags struct {
	host        string
	port        int
	db          int
	username    string
	password    string
	name        string
	configFile  string
	useTLS      bool
	insecure    bool
	maxRetries  int
	healthCheck time.Duration
	logFile     string
	showVersion bool
}

func parseFlags() *cliFlags {
	f := &cliFlags{}
	flag.StringVar(&f.host, "host", connection.DefaultHost, "Server host")
	flag.IntVar(&f.port, "port", connection.DefaultPort, "Server port")
	flag.IntVar(&f.db, "db", 0, "Database index to SELECT after connecting")
	flag.StringVar(&f.username, "username", "", "Username for authentication")
	flag.StringVar(&f.password, "password", "", "Password for authentication")
	flag.StringVar(&f.name, "name", "", "Client connection name")
	flag.StringVar(&f.configFile, "config", "", "YAML configuration file path")
	flag.BoolVar(&f.useTLS, "tls", false, "Connect over TLS")
	flag.BoolVar(&f.insecure, "insecure", false, "Skip TLS certificate verification")
	flag.IntVar(&f.maxRetries, "max-retries", 0, "Per-command reconnect budget (-1 disables retries)")
	flag.DurationVar(&f.healthCheck, "health-check", 0, "Health check interval (0 disables)")
	flag.StringVar(&f.logFile, "log-file", "", "Append connection events to this file (CBOR)")
	flag.BoolVar(&f.showVersion, "version", false, "Print the version and exit")
	flag.Parse()
	return f
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Printf("kvwire-cli %s\n", version.Library)
		return
	}

	cfg, cleanup, err := buildConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvwire-cli: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	conn := connection.New(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = conn.Connect(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvwire-cli: connect %s: %v\n", conn.Addr(), err)
		os.Exit(1)
	}
	defer conn.Close()

	repl, err := newREPL(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvwire-cli: %v\n", err)
		os.Exit(1)
	}
	repl.Run(context.Background())
}

// buildConfig merges the config file (if any) with flag overrides. The
// returned cleanup closes the event log.
func buildConfig(flags *cliFlags) (connection.Config, func(), error) {
	cleanup := func() {}

	var file FileConfig
	if flags.configFile != "" {
		loaded, err := LoadFileConfig(flags.configFile)
		if err != nil {
			return connection.Config{}, cleanup, err
		}
		file = *loaded
	}

	cfg := connection.Config{
		Host:                firstString(flagValue("host", flags.host), file.Host),
		Port:                firstInt(flagValue("port", flags.port), file.Port),
		DB:                  firstInt(flagValue("db", flags.db), file.DB),
		Username:            firstString(flags.username, file.Username),
		Password:            firstString(flags.password, file.Password),
		Name:                firstString(flags.name, file.Name),
		MaxRetries:          firstInt(flagValue("max-retries", flags.maxRetries), file.MaxRetries),
		HealthCheckInterval: firstDuration(flags.healthCheck, file.HealthCheck),
	}

	if flags.useTLS || file.TLS.Enabled {
		cfg.UseTLS = true
		cfg.TLSConfig = transport.NewClientTLSConfig(transport.TLSOptions{
			ServerName:         file.TLS.ServerName,
			InsecureSkipVerify: flags.insecure || file.TLS.InsecureSkipVerify,
		})
	}

	if logPath := firstString(flags.logFile, file.LogFile); logPath != "" {
		fl, err := log.NewFileLogger(logPath)
		if err != nil {
			return connection.Config{}, cleanup, err
		}
		cfg.Logger = fl
		cleanup = func() { fl.Close() }
	}

	return cfg, cleanup, nil
}

// flagValue returns v only when the named flag was set explicitly, so
// flag defaults do not shadow config file values.
func flagValue[T comparable](name string, v T) T {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if set {
		return v
	}
	var zero T
	return zero
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstDuration(vals ...time.Duration) time.Duration {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
