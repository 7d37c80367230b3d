package natsclient

import (
	"fmt"
	"time"

	"github.com/linktrail/linktrail/config"
	"github.com/nats-io/nats.go"
)

const connectTimeout = 5 * time.Second

// Connect dials NATS and opens a JetStream context for the click fan-out
// stream. The connection retries forever so a broker restart does not take
// the fan-out down with it.
func Connect(cfg config.NATSConfig) (*nats.Conn, nats.JetStreamContext, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 4222
	}

	opts := []nats.Option{
		nats.Name("linktrail"),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(fmt.Sprintf("nats://%s:%d", host, port), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats: connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("nats: init jetstream: %w", err)
	}
	return conn, js, nil
}
