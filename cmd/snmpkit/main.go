package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snmpkit/snmpkit"
)

var (
	Version string
)

var setters = map[string]func(*snmpkit.Session, string, any) error{
	"set-octetstring": (*snmpkit.Session).SetOctetString,
	"set-integer":     (*snmpkit.Session).SetInteger,
	"set-integer32":   (*snmpkit.Session).SetInteger32,
	"set-counter32":   (*snmpkit.Session).SetCounter32,
	"set-counter64":   (*snmpkit.Session).SetCounter64,
	"set-gauge32":     (*snmpkit.Session).SetGauge32,
	"set-unsigned32":  (*snmpkit.Session).SetUnsigned32,
	"set-timeticks":   (*snmpkit.Session).SetTimeTicks,
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	host := flag.String("host", "", "IP address or name of the snmp agent")
	port := flag.Uint("port", snmpkit.DefaultPort, "SNMP port of the agent")
	community := flag.String("community", "public", "SNMP community string")
	timeout := flag.Duration("timeout", time.Second, "Per-try exchange timeout")
	retries := flag.Int("retries", 3, "Exchange retries before giving up")
	mibPath := flag.String("mib-path", "", "Comma-separated MIB search directories")
	preload := flag.String("preload", "", "Comma-separated MIB modules to preload, or 'all'")
	debug := flag.Bool("debug", false, "Enable debug logging")
	watch := flag.Duration("watch", 0, "Poll the OID at this interval and serve metrics")
	httpAddr := flag.String("addr", "127.0.0.1:8000", "Address and port to serve metrics on in watch mode")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Info().Str("version", Version).Msg("Starting snmpkit")

	if *host == "" {
		log.Fatal().Msg("`host` is required")
	}

	s := snmpkit.NewSession(nil)
	s.SetHost(*host, uint16(*port))
	s.SetCommunityString(*community)
	s.SetTimeout(*timeout)
	s.SetRetries(*retries)
	defer s.Close()

	for _, p := range splitList(*mibPath) {
		if err := s.AddMibSearchPath(p); err != nil {
			log.Fatal().Err(err).Str("path", p).Msg("failed to add MIB search path")
		}
	}
	switch {
	case *preload == "all":
		if err := s.PreloadMibs(); err != nil {
			log.Fatal().Err(err).Msg("failed to preload MIBs")
		}
	case *preload != "":
		if err := s.PreloadMibs(splitList(*preload)...); err != nil {
			log.Fatal().Err(err).Msg("failed to preload MIBs")
		}
	}

	args := flag.Args()
	if len(args) < 2 {
		log.Fatal().Msg("usage: snmpkit [flags] get OID | set-<type> OID VALUE")
	}
	command, oid := args[0], args[1]

	switch {
	case command == "get" && *watch > 0:
		watchLoop(s, oid, *watch, *httpAddr)
	case command == "get":
		v, err := s.Get(oid)
		if err != nil {
			log.Fatal().Err(err).Str("oid", oid).Msg("GET failed")
		}
		fmt.Println(v)
	default:
		set, ok := setters[command]
		if !ok {
			log.Fatal().Str("command", command).Msg("unknown command")
		}
		if len(args) < 3 {
			log.Fatal().Str("command", command).Msg("missing value argument")
		}
		if err := set(s, oid, args[2]); err != nil {
			log.Fatal().Err(err).Str("oid", oid).Msg("SET failed")
		}
		log.Info().Str("oid", oid).Str("value", args[2]).Msg("SET done")
	}
}

// watchLoop polls one OID on a fixed interval and exposes the request
// metrics at `/metrics` until a termination signal arrives.
func watchLoop(s *snmpkit.Session, oid string, interval time.Duration, addr string) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	server := http.Server{Addr: addr}
	http.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to ListenAndServe metrics server")
		}
	}()

	ticker := clockwork.NewRealClock().NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			log.Info().Msg("got termination signal")
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
			return
		case <-ticker.Chan():
			v, err := s.Get(oid)
			if err != nil {
				log.Error().Err(err).Str("oid", oid).Msg("GET failed")
				continue
			}
			log.Info().Str("oid", oid).Str("value", v.String()).Msg("GET done")
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
