package kitchen

import (
	"context"
	"errors"
	"time"

	"lightfoot-pos/internal/apperr"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "lightfoot.kitchen.v1.KitchenService"

	ListOrdersMethod    = "/" + ServiceName + "/ListOrders"
	CompleteOrderMethod = "/" + ServiceName + "/CompleteOrder"
)

// FeedServer is the kitchen display feed. Messages are protobuf well-known types.
type FeedServer interface {
	ListOrders(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	CompleteOrder(context.Context, *wrapperspb.Int64Value) (*timestamppb.Timestamp, error)
}

var FeedServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListOrders", Handler: listOrdersHandler},
		{MethodName: "CompleteOrder", Handler: completeOrderHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: feedProtoFile,
}

func RegisterFeedServer(s grpc.ServiceRegistrar, srv FeedServer) {
	s.RegisterService(&FeedServiceDesc, srv)
}

func listOrdersHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FeedServer).ListOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListOrdersMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FeedServer).ListOrders(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func completeOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FeedServer).CompleteOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CompleteOrderMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FeedServer).CompleteOrder(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

type FeedService struct {
	queue *Queue
	log   *zap.Logger
}

func NewFeedService(queue *Queue, log *zap.Logger) *FeedService {
	return &FeedService{queue: queue, log: log}
}

func (s *FeedService) ListOrders(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	tickets, err := s.queue.ListCurrent(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}

	values := make([]interface{}, 0, len(tickets))
	for _, t := range tickets {
		items := make([]interface{}, 0, len(t.Items))
		for _, it := range t.Items {
			items = append(items, map[string]interface{}{
				"menu_item_id": it.MenuItemID,
				"quantity":     it.Quantity,
				"itemgroup":    it.ItemGroup,
				"name":         it.Name,
				"item_type":    it.ItemType,
			})
		}
		values = append(values, map[string]interface{}{
			"order_id":      t.OrderID,
			"order_created": t.OrderCreated.UTC().Format(time.RFC3339),
			"items":         items,
		})
	}

	list, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode tickets: %v", err)
	}
	return list, nil
}

func (s *FeedService) CompleteOrder(ctx context.Context, req *wrapperspb.Int64Value) (*timestamppb.Timestamp, error) {
	completedAt, err := s.queue.Complete(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	return timestamppb.New(completedAt), nil
}

func (s *FeedService) toStatus(err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return status.Error(codes.InvalidArgument, apperr.Message(err))
	case errors.Is(err, apperr.ErrNotFound):
		return status.Error(codes.NotFound, apperr.Message(err))
	case errors.Is(err, apperr.ErrConflict):
		return status.Error(codes.AlreadyExists, apperr.Message(err))
	default:
		s.log.Error("kitchen feed failed", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		if err != nil && status.Code(err) == codes.Internal {
			log.Error("grpc request failed", append(fields, zap.Error(err))...)
		} else {
			log.Info("grpc request", fields...)
		}
		return resp, err
	}
}

// NewGRPCServer registers the feed, health and reflection services.
func NewGRPCServer(queue *Queue, log *zap.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(log)))

	RegisterFeedServer(s, NewFeedService(queue, log))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, healthServer)

	reflection.Register(s)

	return s, healthServer
}
