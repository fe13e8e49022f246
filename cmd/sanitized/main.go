// main is the sanitizer daemon launcher
package main

import (
	"bufio"
	"context"
	"expvar"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/inbucket/sanitizer/pkg/config"
	"github.com/inbucket/sanitizer/pkg/extension"
	"github.com/inbucket/sanitizer/pkg/extension/luahost"
	"github.com/inbucket/sanitizer/pkg/msghub"
	"github.com/inbucket/sanitizer/pkg/rest"
	"github.com/inbucket/sanitizer/pkg/sanitize"
	"github.com/inbucket/sanitizer/pkg/server/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// version contains the build version number, populated during linking.
	version = "undefined"

	// date contains the build date, populated during linking.
	date = "undefined"
)

func init() {
	// Server uptime for status page.
	startTime := time.Now()
	expvar.Publish("uptime", expvar.Func(func() any {
		return time.Since(startTime) / time.Second
	}))

	// Goroutine count for status page.
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
}

func main() {
	// Command line flags.
	help := flag.Bool("help", false, "Displays help on flags and env variables.")
	pidfile := flag.String("pidfile", "", "Write our PID into the specified file.")
	logfile := flag.String("logfile", "stderr", "Write out log into the specified file.")
	logjson := flag.Bool("logjson", false, "Logs are written in JSON format.")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sanitized [options]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *help {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "")
		config.Usage()
		return
	}

	// Process configuration.
	config.Version = version
	config.BuildDate = date
	conf, err := config.Process()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Logger setup.
	closeLog, err := openLog(conf.LogLevel, *logfile, *logjson)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Log error: %v\n", err)
		os.Exit(1)
	}
	startupLog := log.With().Str("phase", "startup").Logger()

	// Setup signal handler.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	startupLog.Info().Str("version", config.Version).Str("buildDate", config.BuildDate).
		Msg("Sanitizer starting")

	// Write pidfile if requested.
	if *pidfile != "" {
		pidf, err := os.Create(*pidfile)
		if err != nil {
			startupLog.Fatal().Err(err).Str("path", *pidfile).Msg("Failed to create pidfile")
		}
		fmt.Fprintf(pidf, "%v\n", os.Getpid())
		if err := pidf.Close(); err != nil {
			startupLog.Fatal().Err(err).Str("path", *pidfile).Msg("Failed to close pidfile")
		}
	}

	// Configure internal services.
	p, err := conf.Policy.Build()
	if err != nil {
		removePIDFile(*pidfile)
		startupLog.Fatal().Err(err).Str("module", "policy").Msg("Fatal policy error")
	}
	extHost := extension.NewHost()
	luaHost, err := luahost.New(conf.Lua, extHost)
	if err != nil {
		removePIDFile(*pidfile)
		startupLog.Fatal().Err(err).Str("module", "lua").Msg("Fatal Lua script error")
	}
	msgHub := msghub.New(conf.Web.MonitorHistory, extHost)
	s := sanitize.New(p, extHost, sanitize.WithLogger(log.With().Str("module", "sanitize").Logger()))

	rootCtx, rootCancel := context.WithCancel(context.Background())
	go msgHub.Start(rootCtx)

	// Start HTTP server.
	rest.SetupRoutes(web.Router.PathPrefix(conf.Web.BasePath + "/api/").Subrouter())
	webServer := web.NewServer(conf, s, msgHub)
	webDone := make(chan struct{})
	go func() {
		webServer.Start(rootCtx, func() {
			startupLog.Info().Str("addr", conf.Web.Addr).Msg("Sanitizer ready")
		})
		close(webDone)
	}()

	// Loop forever waiting for signals or server failure.
	select {
	case sig := <-sigChan:
		log.Info().Str("phase", "shutdown").Str("signal", sig.String()).
			Msg("Received signal, shutting down")
	case err := <-webServer.Notify():
		log.Error().Str("phase", "shutdown").Err(err).Msg("Web server failed, shutting down")
	}
	rootCancel()

	// Wait for active connections to finish.
	go timedExit(*pidfile, conf.Web.ShutdownTimeout+10*time.Second)
	<-webDone
	if luaHost != nil {
		luaHost.Close()
	}
	removePIDFile(*pidfile)
	closeLog()
}

// openLog configures zerolog output, returns func to close logfile.
func openLog(level string, logfile string, json bool) (close func(), err error) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		return nil, fmt.Errorf("log level %q not one of: debug, info, warn, error", level)
	}
	close = func() {}
	var w io.Writer
	color := runtime.GOOS != "windows"
	switch logfile {
	case "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		logf, err := os.OpenFile(logfile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, err
		}
		bw := bufio.NewWriter(logf)
		w = bw
		color = false
		close = func() {
			_ = bw.Flush()
			_ = logf.Close()
		}
	}
	w = zerolog.SyncWriter(w)
	if json {
		log.Logger = log.Output(w)
		return close, nil
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     w,
		NoColor: !color,
	})
	return close, nil
}

// removePIDFile removes the PID file if created.
func removePIDFile(pidfile string) {
	if pidfile != "" {
		if err := os.Remove(pidfile); err != nil {
			log.Error().Str("phase", "shutdown").Err(err).Str("path", pidfile).
				Msg("Failed to remove pidfile")
		}
	}
}

// timedExit is called as a goroutine during shutdown, it will force an exit after the timeout.
func timedExit(pidfile string, timeout time.Duration) {
	time.Sleep(timeout)
	removePIDFile(pidfile)
	log.Error().Str("phase", "shutdown").Msg("Clean shutdown took too long, forcing exit")
	os.Exit(0)
}
