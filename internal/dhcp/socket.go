package dhcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/dhcpradiusd/dhcpradiusd/internal/metrics"
	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// soBindToDevice pins the socket to a specific interface (Linux only,
// value 25). On non-Linux platforms the setsockopt call fails
// harmlessly and is logged at debug level.
const soBindToDevice = 25

// Server is the Socket Adapter (§4.6): it owns the listening
// net.PacketConn, applies SO_REUSEADDR/SO_BROADCAST/SO_BINDTODEVICE,
// and wraps the connection in golang.org/x/net/ipv4 with the interface
// control-message flag enabled. The receive loop discards the control
// message, so the arrival interface is not used for routing or subnet
// selection.
type Server struct {
	host   *PolicyHost
	dict   Dictionary
	logger *slog.Logger
	addr   string
	iface  string

	conn    *net.UDPConn
	pconn   *ipv4.PacketConn
	wg      sync.WaitGroup
	done    chan struct{}
	limiter *RateLimiter
}

// NewServer constructs a Socket Adapter bound to addr (":67" if empty),
// optionally pinned to a single interface. limiter may be nil to
// disable request throttling entirely.
func NewServer(host *PolicyHost, dict Dictionary, iface, addr string, limiter *RateLimiter, logger *slog.Logger) *Server {
	if addr == "" {
		addr = fmt.Sprintf(":%d", dhcpv4.ServerPort)
	}
	if limiter == nil {
		limiter = NewRateLimiter(false, 0, 0)
	}
	return &Server{
		host:    host,
		dict:    dict,
		logger:  logger,
		addr:    addr,
		iface:   iface,
		done:    make(chan struct{}),
		limiter: limiter,
	}
}

// Start opens the listening socket and begins the receive loop.
func (s *Server) Start(ctx context.Context) error {
	iface := s.iface
	logger := s.logger

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var firstErr error
			c.Control(func(fd uintptr) {
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
					logger.Warn("failed to set SO_REUSEADDR", "error", err)
				}
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1); err != nil {
					logger.Warn("failed to set SO_BROADCAST", "error", err)
					firstErr = err
				}
				if iface != "" {
					if err := syscall.SetsockoptString(int(fd), syscall.SOL_SOCKET, soBindToDevice, iface); err != nil {
						logger.Debug("SO_BINDTODEVICE not available", "interface", iface, "error", err)
					} else {
						logger.Info("socket bound to interface", "interface", iface)
					}
				}
			})
			return firstErr
		},
	}

	pc, err := lc.ListenPacket(ctx, "udp4", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.conn = pc.(*net.UDPConn)
	s.pconn = ipv4.NewPacketConn(s.conn)
	if err := s.pconn.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		logger.Debug("interface-aware receive unavailable", "error", err)
	}

	logger.Info("DHCP server started", "address", s.addr, "interface", s.iface)

	s.wg.Add(1)
	go s.serve(ctx)
	return nil
}

func (s *Server) serve(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		buf := GetBuffer()
		n, _, src, err := s.pconn.ReadFrom(*buf)
		if err != nil {
			select {
			case <-s.done:
				PutBuffer(buf)
				return
			default:
			}
			s.logger.Error("reading UDP packet", "error", err)
			PutBuffer(buf)
			continue
		}

		srcAddr, _ := src.(*net.UDPAddr)
		s.wg.Add(1)
		go func(data []byte, length int, addr *net.UDPAddr) {
			defer s.wg.Done()
			defer PutBuffer(&data)
			s.processPacket(ctx, data[:length], addr)
		}(*buf, n, srcAddr)
	}
}

func (s *Server) processPacket(ctx context.Context, data []byte, src *net.UDPAddr) {
	local, _ := s.conn.LocalAddr().(*net.UDPAddr)
	dgram, cerr := ReceiveDatagram(data, src, local)
	if cerr != nil {
		metrics.PacketErrors.WithLabelValues(cerr.Kind.String()).Inc()
		if !cerr.Kind.Recoverable() {
			s.logger.Warn("dropping packet", "error", cerr, "src", src.String())
		}
		return
	}

	list, cerr := Decode(dgram, s.dict, s.logger)
	if cerr != nil {
		metrics.PacketErrors.WithLabelValues(cerr.Kind.String()).Inc()
		s.logger.Warn("dropping malformed packet", "error", cerr, "src", src.String())
		return
	}

	msgTypeAttr, _ := list.FindFirst(AttrMessageType)
	metrics.PacketsReceived.WithLabelValues(dhcpv4.MessageType(msgTypeAttr.Byte()).String()).Inc()

	chaddr, _ := list.FindFirst(AttrCHAddr)
	if !s.limiter.Allow(net.HardwareAddr(chaddr.Value)) {
		metrics.PacketErrors.WithLabelValues("rate_limited").Inc()
		return
	}

	start := time.Now()
	resp, respType, ok := s.host.Handle(ctx, list)
	metrics.PacketProcessingDuration.WithLabelValues(dhcpv4.MessageType(msgTypeAttr.Byte()).String()).Observe(time.Since(start).Seconds())
	if !ok {
		return
	}

	replyDgram, cerr := Encode(resp, dgram, respType, s.logger)
	if cerr != nil {
		metrics.PacketErrors.WithLabelValues(cerr.Kind.String()).Inc()
		s.logger.Error("encoding reply", "error", cerr)
		return
	}

	if _, err := s.conn.WriteToUDP(replyDgram.Bytes, replyDgram.DstAddr); err != nil {
		metrics.PacketErrors.WithLabelValues("send").Inc()
		s.logger.Error("sending reply", "error", err, "dst", replyDgram.DstAddr)
		return
	}
	metrics.PacketsSent.WithLabelValues(respType.String()).Inc()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	close(s.done)
	if s.conn != nil {
		s.conn.Close()
	}
	s.wg.Wait()
	s.logger.Info("DHCP server stopped")
}
