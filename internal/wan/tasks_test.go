package wan_test

import (
	"testing"

	"wan-videogen/internal/wan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolution(t *testing.T) {
	tables, err := wan.DefaultTables()
	require.NoError(t, err)

	tests := []struct {
		size string
		want wan.Resolution
	}{
		{"720*1280", wan.Resolution{Width: 720, Height: 1280}},
		{"1280*720", wan.Resolution{Width: 1280, Height: 720}},
		{"480*832", wan.Resolution{Width: 480, Height: 832}},
		{"832*480", wan.Resolution{Width: 832, Height: 480}},
		{"1024*1024", wan.Resolution{Width: 1024, Height: 1024}},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			got, err := tables.Resolution(tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.size, got.String())
		})
	}
}

func TestResolution_UnknownSize(t *testing.T) {
	tables, err := wan.DefaultTables()
	require.NoError(t, err)

	for _, size := range []string{"", "832x480", "640*480", "832 * 480"} {
		_, err := tables.Resolution(size)
		assert.ErrorIs(t, err, wan.ErrUnknownSize, "size %q", size)
	}
}

func TestTask(t *testing.T) {
	tables, err := wan.DefaultTables()
	require.NoError(t, err)

	vace, err := tables.Task("vace-1.3B")
	require.NoError(t, err)
	assert.Equal(t, "vace-1.3B", vace.Name)
	assert.Equal(t, wan.FamilyVace, vace.Family)
	assert.Equal(t, 16, vace.SampleFPS)
	assert.True(t, vace.SupportsSize("832*480"))
	assert.False(t, vace.SupportsSize("1280*720"))

	t2v, err := tables.Task("t2v-14B")
	require.NoError(t, err)
	assert.Equal(t, wan.FamilyT2V, t2v.Family)

	_, err = tables.Task("vace-7B")
	assert.ErrorIs(t, err, wan.ErrUnknownTask)
}

func TestParseTables_RejectsUnknownSupportedSize(t *testing.T) {
	data := []byte(`
sizes:
  "832*480": {width: 832, height: 480}
tasks:
  vace-1.3B:
    family: vace
    sample_fps: 16
    supported_sizes: ["480*832"]
`)
	_, err := wan.ParseTables(data)
	require.Error(t, err)
}
