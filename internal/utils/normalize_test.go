package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClassName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"tomato-early blight", "tomato-early blight"},
		{"  Tomato -  Early   Blight ", "tomato-early blight"},
		{"cucumber leaf - healthy", "cucumber leaf-healthy"},
		{"cucumber leaf -healthy", "cucumber leaf-healthy"},
		{"cucumber leaf- healthy", "cucumber leaf-healthy"},
		{"Tomato___Early_blight", "tomato___early_blight"},
		{"Bell Pepper Leaf-Unhealthy", "bell pepper leaf-unhealthy"},
		{"\tlettuce\n-healthy", "lettuce-healthy"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeClassName(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeClassName_Idempotent(t *testing.T) {
	for _, in := range []string{"A  - b", "Tomato___healthy", "x -  y - z"} {
		once := NormalizeClassName(in)
		assert.Equal(t, once, NormalizeClassName(once))
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"tomato", "healthy"}, Tokenize("Tomato___healthy"))
	assert.Equal(t, []string{"bell", "pepper", "leaf", "unhealthy"}, Tokenize("bell pepper leaf-unhealthy"))
	assert.Equal(t, []string{"pepper", "bell", "bacterial", "spot"}, Tokenize("Pepper,_bell___Bacterial_spot"))
	assert.Empty(t, Tokenize(" - _ "))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Xyz Unknown Pathogen", Humanize("xyz-unknown-pathogen"))
	assert.Equal(t, "Tomato Early Blight", Humanize("Tomato___Early_blight"))
	assert.Equal(t, "", Humanize(""))
}
