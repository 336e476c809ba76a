//go:build !gocv
// +build !gocv

package annotate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"plantscan-service/internal/domain/scan"
)

func TestAnnotateWithoutOpenCV(t *testing.T) {
	out, err := New().Annotate([]byte("jpeg"), []scan.RawPrediction{{ClassLabel: "tomato-healthy", Confidence: 0.9}})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, out)
}
