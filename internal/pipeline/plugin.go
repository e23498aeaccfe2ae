package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
)

// The pipeline process loads model weights before completing the handshake.
const pluginStartTimeout = 30 * time.Minute

const pluginName = "pipeline_grpc"

var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "WAN_PIPELINE_PLUGIN",
	MagicCookieValue: "wan-videogen",
}

var PluginMap = map[string]plugin.Plugin{
	pluginName: &PipelineGRPCPlugin{},
}

// PipelineGRPCPlugin is the client half of the pipeline plugin. The server
// half is plugin/wan-pipeline/plugin.py.
type PipelineGRPCPlugin struct {
	plugin.Plugin
}

func (p *PipelineGRPCPlugin) GRPCServer(broker *plugin.GRPCBroker, s *grpc.Server) error {
	return errors.New("pipeline plugins are served by the python process")
}

func (p *PipelineGRPCPlugin) GRPCClient(ctx context.Context, broker *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return NewGRPCClient(c), nil
}

// PluginPipeline owns a pipeline process started through go-plugin.
type PluginPipeline struct {
	client   *plugin.Client
	pipeline Pipeline
}

var _ Pipeline = (*PluginPipeline)(nil)

func LoadPluginPipeline(pythonExecutable, pluginScript, pipelineName string, cfg LoadConfig) (*PluginPipeline, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("error encoding pipeline config: %w", err)
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap,
		Cmd: exec.Command(
			pythonExecutable,
			pluginScript,
			"--pipeline-name", pipelineName,
			"--pipeline-config", string(cfgJSON),
		),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		StartTimeout:     pluginStartTimeout,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error establishing RPC connection: %w", err)
	}

	raw, err := rpcClient.Dispense(pluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error dispensing '%s': %w", pluginName, err)
	}

	p, ok := raw.(Pipeline)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed interface '%s' is not of expected type Pipeline (actual type: %T)", pluginName, raw)
	}

	return &PluginPipeline{
		client:   client,
		pipeline: p,
	}, nil
}

func (p *PluginPipeline) Prepare(ctx context.Context, req PrepareRequest) (Prepared, error) {
	return p.pipeline.Prepare(ctx, req)
}

func (p *PluginPipeline) Generate(ctx context.Context, req GenerateRequest) (Frames, error) {
	return p.pipeline.Generate(ctx, req)
}

func (p *PluginPipeline) SaveVideo(ctx context.Context, req SaveRequest) error {
	return p.pipeline.SaveVideo(ctx, req)
}

func (p *PluginPipeline) Release() {
	if p.client == nil {
		return
	}

	p.client.Kill()
	p.client = nil
	p.pipeline = nil
}
