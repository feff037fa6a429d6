package http

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/spiceai/plasmagym/pkg/api"
	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/flights"
	"github.com/spiceai/plasmagym/pkg/loggers"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	readTimeout          = 10 * time.Second
	idleTimeout          = 30 * time.Second
	shutdownPollInterval = 50 * time.Millisecond
)

type ServerConfig struct {
	Port uint
}

// Server exposes the progress of flights while they run.
type Server struct {
	config  ServerConfig
	flights *flights.Store
	server  *fasthttp.Server
	ln      net.Listener
	zaplog  *zap.Logger

	connsMu sync.Mutex
	conns   map[net.Conn]fasthttp.ConnState
}

func NewServer(port uint, store *flights.Store) *Server {
	zaplog := loggers.ZapLogger()
	if zaplog == nil {
		zaplog = zap.NewNop()
	}
	s := &Server{
		config: ServerConfig{
			Port: port,
		},
		flights: store,
		zaplog:  zaplog,
		conns:   make(map[net.Conn]fasthttp.ConnState),
	}
	s.server = &fasthttp.Server{
		ReadTimeout:     readTimeout,
		IdleTimeout:     idleTimeout,
		CloseOnShutdown: true,
		ConnState:       s.trackConn,
	}
	return s
}

func (s *Server) trackConn(c net.Conn, state fasthttp.ConnState) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	switch state {
	case fasthttp.StateClosed, fasthttp.StateHijacked:
		delete(s.conns, c)
	default:
		s.conns[c] = state
	}
}

// closeIdleConns closes keep-alive connections waiting for their next request,
// which fasthttp's Shutdown would otherwise wait on until IdleTimeout.
func (s *Server) closeIdleConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for c, state := range s.conns {
		if state == fasthttp.StateIdle {
			_ = c.Close()
			delete(s.conns, c)
		}
	}
}

func healthHandler(ctx *fasthttp.RequestCtx) {
	fmt.Fprintf(ctx, "ok")
}

func writeJson(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		fmt.Fprintf(ctx, "error marshaling response: %s", err.Error())
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetBody(response)
}

func (s *Server) apiGetFlightsHandler(ctx *fasthttp.RequestCtx) {
	data := make([]*api.Flight, 0)
	for _, f := range s.flights.List() {
		data = append(data, api.NewFlight(f))
	}

	writeJson(ctx, data)
}

func (s *Server) lookupFlight(ctx *fasthttp.RequestCtx) *flights.Flight {
	flightParam, _ := ctx.UserValue("flight").(string)
	flight := s.flights.Get(flightParam)
	if flight == nil {
		ctx.Response.SetStatusCode(http.StatusNotFound)
		fmt.Fprintf(ctx, "flight '%s' not found", flightParam)
	}
	return flight
}

func (s *Server) apiGetFlightHandler(ctx *fasthttp.RequestCtx) {
	flight := s.lookupFlight(ctx)
	if flight == nil {
		return
	}

	writeJson(ctx, api.NewFlight(flight))
}

func (s *Server) apiGetFlightEpisodesHandler(ctx *fasthttp.RequestCtx) {
	flight := s.lookupFlight(ctx)
	if flight == nil {
		return
	}

	if string(ctx.Request.Header.Peek("Accept")) == "text/csv" {
		ctx.Response.Header.SetContentType("text/csv")
		if err := flights.WriteEpisodesCsv(ctx, flight.Episodes()); err != nil {
			ctx.Response.SetStatusCode(http.StatusInternalServerError)
			s.zaplog.Sugar().Error(err)
		}
		return
	}

	episodes := make([]*api.Episode, 0)
	for _, ep := range flight.Episodes() {
		episodes = append(episodes, api.NewEpisode(ep))
	}
	writeJson(ctx, episodes)
}

func apiGetEnvironmentsHandler(ctx *fasthttp.RequestCtx) {
	data := make([]*api.Environment, 0)
	for _, id := range environment.Registered() {
		spec, err := environment.GetSpec(id)
		if err != nil {
			continue
		}
		data = append(data, api.NewEnvironment(spec))
	}

	writeJson(ctx, data)
}

func (s *Server) Handler() fasthttp.RequestHandler {
	r := router.New()
	r.GET("/health", healthHandler)

	api := r.Group("/api/v0.1")
	{
		api.GET("/environments", apiGetEnvironmentsHandler)

		// Flights
		api.GET("/flights", s.apiGetFlightsHandler)
		api.GET("/flights/{flight}", s.apiGetFlightHandler)
		api.GET("/flights/{flight}/episodes", s.apiGetFlightEpisodesHandler)
	}

	return r.Handler
}

// Listen binds the configured port. Port 0 picks a free port.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Port, err)
	}
	s.ln = ln
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve blocks serving on the listener bound by Listen until Shutdown is called.
func (s *Server) Serve() error {
	if s.ln == nil {
		return fmt.Errorf("server is not listening")
	}

	serverLogger, err := zap.NewStdLogAt(s.zaplog, zap.DebugLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	s.server.Handler = s.Handler()
	s.server.Logger = serverLogger

	s.zaplog.Info("serving flight progress", zap.String("addr", s.ln.Addr().String()))
	return s.server.Serve(s.ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	done := make(chan error, 1)
	go func() {
		done <- s.server.Shutdown()
	}()

	ticker := time.NewTicker(shutdownPollInterval)
	defer ticker.Stop()

	var err error
	for waiting := true; waiting; {
		s.closeIdleConns()
		select {
		case err = <-done:
			waiting = false
		case <-ticker.C:
		}
	}

	if s.ln != nil {
		// Closing the listener also unblocks a Serve that has not started accepting yet.
		_ = s.ln.Close()
	}
	return err
}
