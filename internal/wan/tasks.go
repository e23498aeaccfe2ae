package wan

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed tasks.yaml
var tasksYAML []byte

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrUnknownSize = errors.New("unknown size")
)

// Family groups tasks that share a pipeline implementation.
type Family string

const (
	FamilyT2V   Family = "t2v"
	FamilyI2V   Family = "i2v"
	FamilyFLF2V Family = "flf2v"
	FamilyT2I   Family = "t2i"
	FamilyVace  Family = "vace"
)

type Resolution struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%d*%d", r.Width, r.Height)
}

type TaskConfig struct {
	Name           string   `yaml:"-"`
	Family         Family   `yaml:"family"`
	SampleFPS      int      `yaml:"sample_fps"`
	SupportedSizes []string `yaml:"supported_sizes"`
}

func (c TaskConfig) SupportsSize(size string) bool {
	return slices.Contains(c.SupportedSizes, size)
}

type Tables struct {
	Sizes map[string]Resolution `yaml:"sizes"`
	Tasks map[string]TaskConfig `yaml:"tasks"`
}

func ParseTables(data []byte) (*Tables, error) {
	var tables Tables
	if err := yaml.UnmarshalStrict(data, &tables); err != nil {
		return nil, fmt.Errorf("error parsing task tables: %w", err)
	}

	for name, task := range tables.Tasks {
		task.Name = name
		if task.SampleFPS <= 0 {
			return nil, fmt.Errorf("task %s: sample_fps must be positive", name)
		}
		for _, size := range task.SupportedSizes {
			if _, ok := tables.Sizes[size]; !ok {
				return nil, fmt.Errorf("task %s: supported size %s is not in the size table", name, size)
			}
		}
		tables.Tasks[name] = task
	}

	return &tables, nil
}

var defaultTables = sync.OnceValues(func() (*Tables, error) {
	return ParseTables(tasksYAML)
})

// DefaultTables returns the tables embedded in the binary.
func DefaultTables() (*Tables, error) {
	return defaultTables()
}

func (t *Tables) Resolution(size string) (Resolution, error) {
	res, ok := t.Sizes[size]
	if !ok {
		return Resolution{}, fmt.Errorf("%w %q, expected one of %v", ErrUnknownSize, size, t.SizeNames())
	}
	return res, nil
}

func (t *Tables) Task(name string) (TaskConfig, error) {
	cfg, ok := t.Tasks[name]
	if !ok {
		return TaskConfig{}, fmt.Errorf("%w %q", ErrUnknownTask, name)
	}
	return cfg, nil
}

func (t *Tables) SizeNames() []string {
	names := make([]string, 0, len(t.Sizes))
	for name := range t.Sizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
