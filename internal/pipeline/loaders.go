package pipeline

import (
	"wan-videogen/internal/wan"
)

type Loader func(cfg LoadConfig) (Pipeline, error)

// NewLoaders returns a loader for every task family with a pipeline process.
// Only VACE is served in fast mode.
func NewLoaders(pythonExec, pluginScript string) map[wan.Family]Loader {
	return map[wan.Family]Loader{
		wan.FamilyVace: func(cfg LoadConfig) (Pipeline, error) {
			p, err := LoadPluginPipeline(pythonExec, pluginScript, "wan_vace", cfg)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}
