package iso8583

import (
	"fmt"
	"strconv"

	moov8583 "github.com/moov-io/iso8583"
	connection "github.com/moov-io/iso8583-connection"
)

// GateResponse is the decoded outcome of a gate request.
type GateResponse struct {
	ResponseCode string
	Balance      int64
}

// Client speaks the gate subset to the card service. Used by terminals and
// by the server tests.
type Client struct {
	c *connection.Connection
}

func NewClient(addr string) (*Client, error) {
	c, err := connection.New(addr, Spec, readMessageLength, writeMessageLength)
	if err != nil {
		return nil, fmt.Errorf("creating gate connection: %w", err)
	}
	if err := c.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to gate server: %w", err)
	}
	return &Client{c: c}, nil
}

func (cl *Client) PayFare(cardID string, fare int64, stan string) (*GateResponse, error) {
	request := moov8583.NewMessage(Spec)
	request.MTI("0200")
	request.Field(2, cardID)
	request.Field(3, ProcFarePurchase)
	request.Field(4, fmt.Sprintf("%012d", fare))
	request.Field(11, stan)

	return cl.send(request)
}

func (cl *Client) BalanceInquiry(cardID, stan string) (*GateResponse, error) {
	request := moov8583.NewMessage(Spec)
	request.MTI("0200")
	request.Field(2, cardID)
	request.Field(3, ProcBalanceInquiry)
	request.Field(11, stan)

	return cl.send(request)
}

func (cl *Client) send(request *moov8583.Message) (*GateResponse, error) {
	response, err := cl.c.Send(request)
	if err != nil {
		return nil, fmt.Errorf("sending gate request: %w", err)
	}

	code, err := response.GetString(39)
	if err != nil {
		return nil, fmt.Errorf("reading response code: %w", err)
	}

	out := &GateResponse{ResponseCode: code}
	if raw, err := response.GetString(54); err == nil && raw != "" {
		if balance, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out.Balance = balance
		}
	}
	return out, nil
}

func (cl *Client) Close() error {
	return cl.c.Close()
}
