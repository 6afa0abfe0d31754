package clients

import (
	"context"
	"fmt"
	"time"

	"lightfoot-pos/internal/services/kitchen"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// KitchenClient talks to the kitchen display feed over gRPC.
type KitchenClient struct {
	conn   *grpc.ClientConn
	health grpc_health_v1.HealthClient
}

func NewKitchenClient(addr string, opts ...grpc.DialOption) (*KitchenClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("kitchen service connection failed: %w", err)
	}
	return &KitchenClient{
		conn:   conn,
		health: grpc_health_v1.NewHealthClient(conn),
	}, nil
}

func (c *KitchenClient) ListOrders(ctx context.Context) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, kitchen.ListOrdersMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *KitchenClient) CompleteOrder(ctx context.Context, orderID int64) (time.Time, error) {
	out := new(timestamppb.Timestamp)
	if err := c.conn.Invoke(ctx, kitchen.CompleteOrderMethod, wrapperspb.Int64(orderID), out); err != nil {
		return time.Time{}, err
	}
	return out.AsTime(), nil
}

// Healthy reports whether the feed answers SERVING within ctx.
func (c *KitchenClient) Healthy(ctx context.Context) bool {
	if c == nil {
		return false
	}
	resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: kitchen.ServiceName})
	return err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING
}

func (c *KitchenClient) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
