package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"spacehub/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const bookingServiceName = "spacehub.booking.v1.BookingService"

const (
	methodCheckAvailability = "/" + bookingServiceName + "/CheckAvailability"
	methodGetAvailableSlots = "/" + bookingServiceName + "/GetAvailableSlots"
	methodCalculatePrice    = "/" + bookingServiceName + "/CalculatePrice"
	methodValidatePromoCode = "/" + bookingServiceName + "/ValidatePromoCode"
)

// BookingRPCServer is the gRPC read surface of the booking engine. Requests
// and responses are google.protobuf.Struct documents that use the same field
// names as the HTTP API.
type BookingRPCServer interface {
	CheckAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAvailableSlots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CalculatePrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidatePromoCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type rpcMethod func(BookingRPCServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func structHandler(fullMethod string, m rpcMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(BookingRPCServer)
		if interceptor == nil {
			return m(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return m(server, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var bookingServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingServiceName,
	HandlerType: (*BookingRPCServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckAvailability", Handler: structHandler(methodCheckAvailability, BookingRPCServer.CheckAvailability)},
		{MethodName: "GetAvailableSlots", Handler: structHandler(methodGetAvailableSlots, BookingRPCServer.GetAvailableSlots)},
		{MethodName: "CalculatePrice", Handler: structHandler(methodCalculatePrice, BookingRPCServer.CalculatePrice)},
		{MethodName: "ValidatePromoCode", Handler: structHandler(methodValidatePromoCode, BookingRPCServer.ValidatePromoCode)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spacehub/booking/v1/booking.proto",
}

func RegisterBookingRPCServer(s grpc.ServiceRegistrar, srv BookingRPCServer) {
	s.RegisterService(&bookingServiceDesc, srv)
}

// BookingRPC answers availability, pricing and promo questions over gRPC.
type BookingRPC struct {
	availability *service.AvailabilityService
	pricing      *service.PricingService
	promos       *service.PromoService
}

func NewBookingRPC(svc *Services) *BookingRPC {
	return &BookingRPC{
		availability: svc.Availability,
		pricing:      svc.Pricing,
		promos:       svc.Promos,
	}
}

func (s *BookingRPC) CheckAvailability(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	spaceID, err := structID(in, "spaceId")
	if err != nil {
		return nil, err
	}
	res, err := s.availability.CheckAvailability(ctx, spaceID,
		structString(in, "date"), structString(in, "startTime"), structString(in, "endTime"))
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(res)
}

func (s *BookingRPC) GetAvailableSlots(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	spaceID, err := structID(in, "spaceId")
	if err != nil {
		return nil, err
	}
	duration, err := structInt(in, "duration")
	if err != nil {
		return nil, err
	}
	res, err := s.availability.GetAvailableSlots(ctx, spaceID, structString(in, "date"), int(duration))
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(res)
}

func (s *BookingRPC) CalculatePrice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	spaceID, err := structID(in, "spaceId")
	if err != nil {
		return nil, err
	}
	participants, err := structInt(in, "participants")
	if err != nil {
		return nil, err
	}
	quote, err := s.pricing.CalculatePrice(ctx, spaceID,
		structString(in, "startTime"), structString(in, "endTime"), int(participants))
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(quote)
}

func (s *BookingRPC) ValidatePromoCode(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := structID(in, "userId")
	if err != nil {
		return nil, err
	}
	res, err := s.promos.ValidatePromoCode(ctx, structString(in, "code"), userID, structNumber(in, "bookingAmount"))
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(res)
}

func structString(in *structpb.Struct, key string) string {
	v, ok := in.GetFields()[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

func structNumber(in *structpb.Struct, key string) float64 {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0
	}
	return v.GetNumberValue()
}

func structInt(in *structpb.Struct, key string) (int64, error) {
	n := structNumber(in, key)
	if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int64(n), nil
}

func structID(in *structpb.Struct, key string) (int64, error) {
	id, err := structInt(in, key)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return id, nil
}

// toStruct converts a response model through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}
