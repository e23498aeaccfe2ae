package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Every RPC carries a JSON document wrapped in a google.protobuf.BytesValue so
// the Python side needs no generated stubs.
const pipelineServiceName = "wan.pipeline.Pipeline"

// GRPCClient is a Pipeline that talks to a pipeline process over gRPC.
type GRPCClient struct{ conn grpc.ClientConnInterface }

var _ Pipeline = (*GRPCClient)(nil)

func NewGRPCClient(conn grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{conn: conn}
}

func (m *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("error encoding %s request: %w", method, err)
	}

	out := new(wrapperspb.BytesValue)
	if err := m.conn.Invoke(ctx, "/"+pipelineServiceName+"/"+method, wrapperspb.Bytes(payload), out); err != nil {
		return err
	}

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(out.GetValue(), resp); err != nil {
		return fmt.Errorf("error decoding %s response: %w", method, err)
	}
	return nil
}

func (m *GRPCClient) Prepare(ctx context.Context, req PrepareRequest) (Prepared, error) {
	var resp Prepared
	err := m.call(ctx, "Prepare", req, &resp)
	return resp, err
}

func (m *GRPCClient) Generate(ctx context.Context, req GenerateRequest) (Frames, error) {
	var resp Frames
	err := m.call(ctx, "Generate", req, &resp)
	return resp, err
}

func (m *GRPCClient) SaveVideo(ctx context.Context, req SaveRequest) error {
	return m.call(ctx, "SaveVideo", req, nil)
}

// Release is a no-op, the owning plugin client kills the process.
func (m *GRPCClient) Release() {}
