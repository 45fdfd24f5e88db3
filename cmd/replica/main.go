// Command replica launches a single Raft replica.
package main

import (
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/riverkv/raftkv/internal/adminserver"
	"github.com/riverkv/raftkv/internal/replica"
	"github.com/riverkv/raftkv/internal/transport"
)

// ErrUsage is returned when the command is invoked without enough
// positional arguments.
var ErrUsage = errors.New("usage: replica <broker-port> <id> <peer-id> [peer-id ...]")

// ReplicaConfig contains configurable properties for a replica.
type ReplicaConfig struct {
	ID         string
	BrokerPort int
	PeerIDs    []string
}

// parseReplicaConfig reads a ReplicaConfig from positional command-line
// arguments: broker port, own id, then one or more peer ids.
func parseReplicaConfig(args []string) (ReplicaConfig, error) {
	if len(args) < 3 {
		return ReplicaConfig{}, ErrUsage
	}
	port, err := strconv.Atoi(args[0])
	if err != nil {
		return ReplicaConfig{}, err
	}
	return ReplicaConfig{
		ID:         args[1],
		BrokerPort: port,
		PeerIDs:    args[2:],
	}, nil
}

func main() {
	configureLogging()

	cfg, err := parseReplicaConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	tr, err := transport.NewUDPTransport(cfg.BrokerPort)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open transport")
	}
	defer tr.Close()

	r := replica.New(cfg.ID, cfg.PeerIDs, tr)
	r.Started()

	go serveAdmin(r)

	log.Info().Str("id", cfg.ID).Int("brokerPort", cfg.BrokerPort).
		Strs("peers", cfg.PeerIDs).Msg("replica starting")

	r.Run(nil)
}

func configureLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if isTerminal(os.Stderr) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// serveAdmin runs the read-only admin/observability HTTP surface on an
// ephemeral port, logging the chosen port so an operator can find it.
func serveAdmin(r *replica.Replica) {
	engine := adminserver.New(r)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Warn().Err(err).Msg("admin server: failed to bind, skipping")
		return
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("admin server listening")
	if err := http.Serve(ln, engine); err != nil {
		log.Warn().Err(err).Msg("admin server stopped")
	}
}
