package iso8583

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/farekit/transit/farecard/models"
	moov8583 "github.com/moov-io/iso8583"
	connection "github.com/moov-io/iso8583-connection"
	"golang.org/x/exp/slog"
)

// CardService is the part of the card service the gate link needs.
type CardService interface {
	Balance(ctx context.Context, cardID string) (*models.Card, error)
	Pay(ctx context.Context, cardID string, fare int64) (*models.MutationResult, error)
}

// Server terminates ISO 8583 connections from fare gates: 0200 financial
// requests debit a card (purchase) or read its balance (inquiry).
type Server struct {
	Addr string

	logger  *slog.Logger
	addr    string
	service CardService

	ln      net.Listener
	wg      sync.WaitGroup
	mu      sync.Mutex
	conns   []*connection.Connection
	closing bool
}

func NewServer(logger *slog.Logger, addr string, service CardService) *Server {
	return &Server{
		logger:  logger.With(slog.String("server", "gate-iso8583")),
		addr:    addr,
		service: service,
	}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}
	s.ln = ln
	s.Addr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("gate server started", slog.String("addr", s.Addr))

		for {
			conn, err := ln.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.logger.Error("accepting connection", "err", err)
				}
				return
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConnection(conn)
			}()
		}
	}()

	return nil
}

func (s *Server) handleConnection(conn net.Conn) {
	c, err := connection.NewFrom(conn, Spec, readMessageLength, writeMessageLength,
		connection.InboundMessageHandler(s.handleRequest),
	)
	if err != nil {
		s.logger.Error("wrapping gate connection", "err", err)
		conn.Close()
		return
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		c.Close()
		return
	}
	s.conns = append(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) handleRequest(c *connection.Connection, message *moov8583.Message) {
	response := moov8583.NewMessage(Spec)
	response.MTI("0210")

	code := s.process(message, response)
	response.Field(39, code)

	if err := c.Reply(response); err != nil {
		s.logger.Error("replying to gate", "err", err)
	}
}

// process fills the response echo fields and returns the response code.
func (s *Server) process(message, response *moov8583.Message) string {
	mti, err := message.GetMTI()
	if err != nil || mti != "0200" {
		return ResponseFormatError
	}

	cardID, err := message.GetString(2)
	if err != nil {
		return ResponseFormatError
	}
	proc, err := message.GetString(3)
	if err != nil {
		return ResponseFormatError
	}
	// STAN is echoed so the gate can match the response; the service does
	// not deduplicate on it.
	if stan, err := message.GetString(11); err == nil {
		response.Field(11, stan)
	}
	response.Field(2, cardID)
	response.Field(3, proc)

	ctx := context.Background()

	switch proc {
	case ProcFarePurchase:
		raw, err := message.GetString(4)
		if err != nil {
			return ResponseFormatError
		}
		fare, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || fare <= 0 {
			return ResponseFormatError
		}

		res, err := s.service.Pay(ctx, cardID, fare)
		if err != nil {
			var insufficient *models.InsufficientFundsError
			var validation *models.ValidationError
			switch {
			case errors.As(err, &insufficient):
				response.Field(54, fmt.Sprintf("%012d", insufficient.Balance))
				return ResponseInsufficientFunds
			case errors.Is(err, models.ErrCardNotFound):
				return ResponseInvalidCard
			case errors.As(err, &validation):
				return ResponseFormatError
			default:
				s.logger.Error("gate purchase failed", "err", err)
				return ResponseSystemMalfunction
			}
		}
		response.Field(54, fmt.Sprintf("%012d", res.NewBalance))
		return ResponseApproved

	case ProcBalanceInquiry:
		card, err := s.service.Balance(ctx, cardID)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrCardNotFound), errors.Is(err, models.ErrInvalidCardID):
				return ResponseInvalidCard
			default:
				s.logger.Error("gate balance inquiry failed", "err", err)
				return ResponseSystemMalfunction
			}
		}
		response.Field(54, fmt.Sprintf("%012d", card.Balance))
		return ResponseApproved

	default:
		return ResponseFormatError
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	s.closing = true
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	if s.ln != nil {
		s.ln.Close()
	}
	for _, c := range conns {
		c.Close()
	}
	s.wg.Wait()

	s.logger.Info("gate server stopped")
	return nil
}
