package iso8583_test

import (
	"context"
	"os"
	"testing"

	"github.com/farekit/transit/farecard"
	gate8583 "github.com/farekit/transit/farecard/iso8583"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func startGateServer(t *testing.T) (*gate8583.Server, *farecard.Service) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout))
	service := farecard.NewService(farecard.NewRepository(), farecard.DefaultConfig())

	server := gate8583.NewServer(logger, "localhost:0", service)
	require.NoError(t, server.Start())
	t.Cleanup(func() { server.Close() })

	return server, service
}

func TestGatePurchase(t *testing.T) {
	server, service := startGateServer(t)
	ctx := context.Background()

	card, err := service.OpenAccount(ctx)
	require.NoError(t, err)
	_, err = service.TopUp(ctx, card.CardID, 20000)
	require.NoError(t, err)

	client, err := gate8583.NewClient(server.Addr)
	require.NoError(t, err)
	defer client.Close()

	t.Run("approved purchase debits the card", func(t *testing.T) {
		resp, err := client.PayFare(card.CardID, 7500, "000001")
		require.NoError(t, err)
		require.Equal(t, gate8583.ResponseApproved, resp.ResponseCode)
		require.Equal(t, int64(12500), resp.Balance)

		current, err := service.Balance(ctx, card.CardID)
		require.NoError(t, err)
		require.Equal(t, int64(12500), current.Balance)
	})

	t.Run("insufficient funds reports current balance", func(t *testing.T) {
		resp, err := client.PayFare(card.CardID, 50000, "000002")
		require.NoError(t, err)
		require.Equal(t, gate8583.ResponseInsufficientFunds, resp.ResponseCode)
		require.Equal(t, int64(12500), resp.Balance)

		// rejected gate purchase must not mutate
		current, err := service.Balance(ctx, card.CardID)
		require.NoError(t, err)
		require.Equal(t, int64(12500), current.Balance)
	})

	t.Run("unknown card", func(t *testing.T) {
		resp, err := client.PayFare("99999998", 5000, "000003")
		require.NoError(t, err)
		require.Equal(t, gate8583.ResponseInvalidCard, resp.ResponseCode)
	})
}

func TestGateBalanceInquiry(t *testing.T) {
	server, service := startGateServer(t)
	ctx := context.Background()

	card, err := service.OpenAccount(ctx)
	require.NoError(t, err)
	_, err = service.TopUp(ctx, card.CardID, 5000)
	require.NoError(t, err)

	client, err := gate8583.NewClient(server.Addr)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.BalanceInquiry(card.CardID, "000010")
	require.NoError(t, err)
	require.Equal(t, gate8583.ResponseApproved, resp.ResponseCode)
	require.Equal(t, int64(5000), resp.Balance)

	resp, err = client.BalanceInquiry("abc", "000011")
	require.NoError(t, err)
	require.Equal(t, gate8583.ResponseInvalidCard, resp.ResponseCode)
}
