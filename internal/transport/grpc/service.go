package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "streak.v1.StreakService"

// Method names
const (
	MethodToggleHabit      = "ToggleHabit"
	MethodGetHabit         = "GetHabit"
	MethodRegisterHabit    = "RegisterHabit"
	MethodScheduleReminder = "ScheduleReminder"
	MethodCancelReminder   = "CancelReminder"
)

// StreakServiceServer is the server API for the streak service.
// Requests and responses are google.protobuf.Struct messages.
type StreakServiceServer interface {
	ToggleHabit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetHabit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RegisterHabit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ScheduleReminder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelReminder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(StreakServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(StreakServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// StreakServiceDesc describes the streak service for grpc.ServiceRegistrar
var StreakServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StreakServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodToggleHabit, StreakServiceServer.ToggleHabit),
		unaryMethod(MethodGetHabit, StreakServiceServer.GetHabit),
		unaryMethod(MethodRegisterHabit, StreakServiceServer.RegisterHabit),
		unaryMethod(MethodScheduleReminder, StreakServiceServer.ScheduleReminder),
		unaryMethod(MethodCancelReminder, StreakServiceServer.CancelReminder),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "streak/v1/streak.proto",
}

// RegisterStreakServiceServer registers srv on s
func RegisterStreakServiceServer(s grpc.ServiceRegistrar, srv StreakServiceServer) {
	s.RegisterService(&StreakServiceDesc, srv)
}
