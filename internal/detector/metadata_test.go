package detector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validMetadata() Metadata {
	return Metadata{
		InputShape:  []int64{1, 3, 640, 640},
		OutputShape: []int64{1, 6, 8400},
		Classes:     []string{"tomato-healthy", "tomato-early blight"},
		ImageSize:   640,
	}
}

func TestMetadataValidate(t *testing.T) {
	m := validMetadata()
	require.NoError(t, m.validate())
	require.Equal(t, "images", m.InputName)
	require.Equal(t, "output0", m.OutputName)
}

func TestMetadataValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Metadata)
	}{
		{"input smaller than image", func(m *Metadata) { m.InputShape = []int64{1, 3, 320, 320} }},
		{"input larger than image", func(m *Metadata) { m.ImageSize = 320 }},
		{"missing input shape", func(m *Metadata) { m.InputShape = nil }},
		{"output class count", func(m *Metadata) { m.OutputShape = []int64{1, 7, 8400} }},
		{"no classes", func(m *Metadata) { m.Classes = nil }},
		{"no image size", func(m *Metadata) { m.ImageSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMetadata()
			tt.mutate(&m)
			require.Error(t, m.validate())
		})
	}
}
