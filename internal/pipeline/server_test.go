package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type PipelineServer interface {
	Prepare(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Generate(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	SaveVideo(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

func RegisterPipelineServer(s grpc.ServiceRegistrar, srv PipelineServer) {
	s.RegisterService(&pipelineServiceDesc, srv)
}

var pipelineServiceDesc = grpc.ServiceDesc{
	ServiceName: pipelineServiceName,
	HandlerType: (*PipelineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Prepare", Handler: unaryHandler("Prepare", PipelineServer.Prepare)},
		{MethodName: "Generate", Handler: unaryHandler("Generate", PipelineServer.Generate)},
		{MethodName: "SaveVideo", Handler: unaryHandler("SaveVideo", PipelineServer.SaveVideo)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pipeline.proto",
}

type unaryMethod func(PipelineServer, context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)

func unaryHandler(name string, method unaryMethod) grpc.MethodHandler {
	fullMethod := "/" + pipelineServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(PipelineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(PipelineServer), ctx, req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCServer serves a Go Pipeline with the same wire format as the Python plugin.
type GRPCServer struct {
	Impl Pipeline
}

var _ PipelineServer = (*GRPCServer)(nil)

func (m *GRPCServer) Prepare(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req PrepareRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, fmt.Errorf("error decoding Prepare request: %w", err)
	}
	v, err := m.Impl.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeResponse(v)
}

func (m *GRPCServer) Generate(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req GenerateRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, fmt.Errorf("error decoding Generate request: %w", err)
	}
	v, err := m.Impl.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeResponse(v)
}

func (m *GRPCServer) SaveVideo(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req SaveRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, fmt.Errorf("error decoding SaveVideo request: %w", err)
	}
	if err := m.Impl.SaveVideo(ctx, req); err != nil {
		return nil, err
	}
	return encodeResponse(struct{}{})
}

func encodeResponse(v any) (*wrapperspb.BytesValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding response: %w", err)
	}
	return wrapperspb.Bytes(data), nil
}
