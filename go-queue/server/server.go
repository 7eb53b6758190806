// Package server exposes queue metrics over HTTP.
package server

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Charana123/dcqueue/go-queue/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server interface {
	Serve()
	GetServerPort() int
}

type server struct {
	port     int
	listener net.Listener
	http     *http.Server
	quit     chan int
}

var (
	listen = net.Listen
)

// NewServer listens on addr and serves the registry's metrics at /metrics
// once Serve is called. Closing quit shuts the listener down.
func NewServer(
	addr string,
	registry *prometheus.Registry,
	quit chan int) (Server, error) {

	listener, err := listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	sv := &server{
		listener: listener,
		quit:     quit,
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		sv.port = tcpAddr.Port
	}
	return sv, nil
}

func (sv *server) Serve() {
	go func() {
		err := sv.http.Serve(sv.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics listener stopped", zap.Error(err))
		}
	}()

	go func() {
		<-sv.quit
		sv.http.Close()
		logging.Info("Safely terminating metrics listener")
	}()
}

func (sv *server) GetServerPort() int {
	return sv.port
}
