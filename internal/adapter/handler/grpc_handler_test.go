package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/lot-ledger/internal/adapter/handler/rpc"
	"github.com/rl1809/lot-ledger/internal/core/service"
)

func startGRPC(t *testing.T, svc *service.InventoryService) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	rpc.RegisterInventoryServiceServer(srv, NewGRPCHandler(svc, zaptest.NewLogger(t)))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)

	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGRPCHandler_LedgerScenario(t *testing.T) {
	svc, _ := newTestService(t)
	client := rpc.NewClient(startGRPC(t, svc))
	ctx := testContext(t)

	add := &rpc.AddRequest{
		ItemNumber: "PN-1",
		Lot:        "L1",
		Name:       "Resin",
		Quantity:   decimal.NewNullDecimal(decimal.NewFromInt(100)),
		Unit:       "kg",
		Username:   "alice",
	}
	mv, err := client.Add(ctx, add)
	require.NoError(t, err)
	assert.Equal(t, "100", mv.Lot.Quantity.String())

	add.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(50))
	mv, err = client.Add(ctx, add)
	require.NoError(t, err)
	assert.Equal(t, "150", mv.Entry.Remaining.String())

	_, err = client.Remove(ctx, &rpc.RemoveRequest{ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(200)), Username: "bob"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	mv, err = client.Remove(ctx, &rpc.RemoveRequest{ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(120)), Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "30", mv.Entry.Remaining.String())
	require.Len(t, svc.GetAlertQueue(), 1)

	mv, err = client.Adjust(ctx, &rpc.AdjustRequest{ItemNumber: "PN-1", Lot: "L1", NewQuantity: decimal.NewNullDecimal(decimal.NewFromInt(500)), Username: "carol"})
	require.NoError(t, err)
	assert.Equal(t, "470", mv.Entry.Change.String())
	assert.Equal(t, "ADJUST", mv.Entry.ActionType)

	history, err := client.History(ctx, &rpc.HistoryRequest{ItemNumber: "PN-1"})
	require.NoError(t, err)
	require.Len(t, history.Entries, 4)
	assert.Greater(t, history.Entries[0].ID, history.Entries[3].ID)

	inv, err := client.Inventory(ctx, &rpc.InventoryRequest{})
	require.NoError(t, err)
	require.Len(t, inv.Lots, 1)
	assert.Equal(t, "500", inv.Lots[0].Quantity.String())
}

func TestGRPCHandler_Reads(t *testing.T) {
	svc, _ := newTestService(t)
	client := rpc.NewClient(startGRPC(t, svc))
	ctx := testContext(t)

	_, err := client.Add(ctx, &rpc.AddRequest{ItemNumber: "PN-1", Lot: "L1", Name: "Resin", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(7)), Unit: "L", Username: "alice"})
	require.NoError(t, err)

	lookup, err := client.Lookup(ctx, &rpc.ItemRequest{ItemNumber: "PN-1"})
	require.NoError(t, err)
	assert.True(t, lookup.Found)
	assert.Equal(t, "Resin", lookup.Lot.Name)

	lookup, err = client.Lookup(ctx, &rpc.ItemRequest{ItemNumber: "PN-2"})
	require.NoError(t, err)
	assert.False(t, lookup.Found)

	lots, err := client.LotsFor(ctx, &rpc.ItemRequest{ItemNumber: "PN-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, lots.Lots)

	info, err := client.LotInfo(ctx, &rpc.LotRequest{ItemNumber: "PN-1", Lot: "L1"})
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.Equal(t, "7", info.Quantity.String())
	assert.Equal(t, "L", info.Unit)

	info, err = client.LotInfo(ctx, &rpc.LotRequest{ItemNumber: "PN-1", Lot: "L2"})
	require.NoError(t, err)
	assert.False(t, info.Found)
}

func TestGRPCHandler_StatusCodes(t *testing.T) {
	svc, adapter := newTestService(t)
	client := rpc.NewClient(startGRPC(t, svc))
	ctx := testContext(t)

	_, err := client.Remove(ctx, &rpc.RemoveRequest{ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(1)), Username: "alice"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Add(ctx, &rpc.AddRequest{ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(-1)), Unit: "kg", Username: "alice"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Add(ctx, &rpc.AddRequest{ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(1)), Unit: "kg"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req := &rpc.AddRequest{RequestID: "req-1", ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(1)), Unit: "kg", Username: "alice"}
	_, err = client.Add(ctx, req)
	require.NoError(t, err)
	_, err = client.Add(ctx, req)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	failLedgerWrites(t, adapter)
	_, err = client.Adjust(ctx, &rpc.AdjustRequest{ItemNumber: "PN-1", Lot: "L1", NewQuantity: decimal.NewNullDecimal(decimal.NewFromInt(9)), Username: "alice"})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, "internal error", status.Convert(err).Message())
}

func TestGRPCHandler_Health(t *testing.T) {
	svc, _ := newTestService(t)
	conn := startGRPC(t, svc)

	resp, err := healthpb.NewHealthClient(conn).Check(testContext(t), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestGRPCHandler_MissingQuantityIsInvalidArgument(t *testing.T) {
	svc, _ := newTestService(t)
	client := rpc.NewClient(startGRPC(t, svc))
	ctx := testContext(t)

	_, err := client.Add(ctx, &rpc.AddRequest{ItemNumber: "PN-1", Lot: "L1", Unit: "kg", Username: "alice"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Add(ctx, &rpc.AddRequest{ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.NewFromInt(100)), Unit: "kg", Username: "alice"})
	require.NoError(t, err)

	_, err = client.Remove(ctx, &rpc.RemoveRequest{ItemNumber: "PN-1", Lot: "L1", Username: "bob"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Adjust(ctx, &rpc.AdjustRequest{ItemNumber: "PN-1", Lot: "L1", Username: "carol"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "new_quantity is required")

	_, err = client.Add(ctx, &rpc.AddRequest{ItemNumber: "PN-1", Lot: "L1", Quantity: decimal.NewNullDecimal(decimal.RequireFromString("0.00001")), Unit: "kg", Username: "alice"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	info, err := client.LotInfo(ctx, &rpc.LotRequest{ItemNumber: "PN-1", Lot: "L1"})
	require.NoError(t, err)
	assert.Equal(t, "100", info.Quantity.String())

	history, err := client.History(ctx, &rpc.HistoryRequest{ItemNumber: "PN-1"})
	require.NoError(t, err)
	assert.Len(t, history.Entries, 1)
}
