package station

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/reconfigmanus/mes-go/internal/application/dispatch"
)

// ConnectionMetrics tracks the number of connected stations
type ConnectionMetrics interface {
	ConnectionOpened()
	ConnectionClosed()
}

type nopConnectionMetrics struct{}

func (nopConnectionMetrics) ConnectionOpened() {}
func (nopConnectionMetrics) ConnectionClosed() {}

// Server accepts station connections and routes their framed queries to
// the dispatch engine. One reader goroutine per connection; frames on one
// connection are processed strictly in arrival order.
type Server struct {
	addr    string
	engine  *dispatch.Engine
	limiter *rate.Limiter
	metrics ConnectionMetrics

	ln net.Listener
	wg sync.WaitGroup
}

// NewServer creates a station server bound to addr once Listen is called.
// metrics may be nil.
func NewServer(addr string, engine *dispatch.Engine, metrics ConnectionMetrics) *Server {
	if metrics == nil {
		metrics = nopConnectionMetrics{}
	}
	return &Server{
		addr:   addr,
		engine: engine,
		// Accept throttle: a plant has tens of stations, so a sustained
		// connection storm is always a malfunction
		limiter: rate.NewLimiter(rate.Limit(100), 100),
		metrics: metrics,
	}
}

// Listen binds the TCP port
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}
	s.ln = ln
	log.Printf("[MES] Listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address; valid after Listen
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until the context is cancelled, then closes
// the listener and waits for the per-connection readers to drain
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[MES] Accept failed: %v", err)
			continue
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}

	s.wg.Wait()
	log.Printf("[MES] Server stopped")
	return nil
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connID := uuid.NewString()[:8]
	log.Printf("[MES] Client %s connected from %s", connID, conn.RemoteAddr())
	s.metrics.ConnectionOpened()
	defer func() {
		s.metrics.ConnectionClosed()
		log.Printf("[MES] Client %s disconnected", connID)
	}()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		frame, err := ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("[MES] Client %s read failed: %v", connID, err)
			}
			return
		}

		rsp, ok := s.handleFrame(connID, frame)
		if !ok {
			continue
		}
		out := Frame{Type: MsgActionRsp, Payload: EncodeActionRsp(rsp)}
		if err := WriteFrame(conn, out); err != nil {
			// The decision is complete; a vanished client just loses it
			log.Printf("[MES] Client %s write failed: %v", connID, err)
			return
		}
	}
}

func (s *Server) handleFrame(connID string, frame Frame) (dispatch.Response, bool) {
	switch frame.Type {
	case MsgActionQuery:
		q, err := DecodeActionQuery(frame.Payload)
		if err != nil {
			log.Printf("[MES] Client %s sent malformed action query: %v", connID, err)
			return dispatch.Response{}, false
		}
		return s.engine.HandleActionQuery(q), true
	case MsgActionDoneQuery:
		q, err := DecodeActionQuery(frame.Payload)
		if err != nil {
			log.Printf("[MES] Client %s sent malformed action done query: %v", connID, err)
			return dispatch.Response{}, false
		}
		return s.engine.HandleActionDoneQuery(q), true
	default:
		log.Printf("[MES] Client %s sent unknown message type 0x%x", connID, uint32(frame.Type))
		return dispatch.Response{}, false
	}
}
