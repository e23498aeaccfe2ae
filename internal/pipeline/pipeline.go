package pipeline

import (
	"context"

	"wan-videogen/internal/wan"
)

// Pipeline is the two-phase contract of the Wan video model: Prepare turns raw
// inputs into the model's tensor representation, Generate runs sampling on the
// prepared tensors, SaveVideo encodes the resulting frames. Tensors stay inside
// the pipeline process and are referred to by handle.
type Pipeline interface {
	Prepare(ctx context.Context, req PrepareRequest) (Prepared, error)

	Generate(ctx context.Context, req GenerateRequest) (Frames, error)

	SaveVideo(ctx context.Context, req SaveRequest) error

	Release()
}

// LoadConfig is handed to the pipeline process when it is started.
type LoadConfig struct {
	Task          string `json:"task"`
	CheckpointDir string `json:"checkpoint_dir"`
	DeviceID      int    `json:"device_id"`
	Rank          int    `json:"rank"`
	T5FSDP        bool   `json:"t5_fsdp"`
	DitFSDP       bool   `json:"dit_fsdp"`
	UseUSP        bool   `json:"use_usp"`
	T5CPU         bool   `json:"t5_cpu"`
}

type PrepareRequest struct {
	// SrcVideo and SrcMask hold one entry per batch item; an empty string means none.
	SrcVideo     []string       `json:"src_video"`
	SrcMask      []string       `json:"src_mask"`
	SrcRefImages [][]string     `json:"src_ref_images"`
	FrameNum     int            `json:"frame_num"`
	Size         wan.Resolution `json:"size"`
	DeviceID     int            `json:"device_id"`
}

type Prepared struct {
	ID string `json:"id"`
}

type GenerateRequest struct {
	Prompt        string         `json:"prompt"`
	PreparedID    string         `json:"prepared_id"`
	Size          wan.Resolution `json:"size"`
	FrameNum      int            `json:"frame_num"`
	Shift         float64        `json:"shift"`
	SampleSolver  string         `json:"sample_solver"`
	SamplingSteps int            `json:"sampling_steps"`
	GuideScale    float64        `json:"guide_scale"`
	Seed          int64          `json:"seed"`
	OffloadModel  bool           `json:"offload_model"`
}

type Frames struct {
	ID        string `json:"id"`
	NumFrames int    `json:"num_frames"`
}

type SaveRequest struct {
	FramesID   string     `json:"frames_id"`
	SaveFile   string     `json:"save_file"`
	FPS        int        `json:"fps"`
	NRow       int        `json:"nrow"`
	Normalize  bool       `json:"normalize"`
	ValueRange [2]float64 `json:"value_range"`
}
