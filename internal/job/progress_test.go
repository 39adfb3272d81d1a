package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current int
		total   int
		want    float64
	}{
		{"zero total", 5, 0, 0},
		{"negative total", 5, -1, 0},
		{"zero of ten", 0, 10, 0},
		{"half", 5, 10, 50},
		{"complete", 10, 10, 100},
		{"rounds to two decimals", 1, 3, 33.33},
		{"two thirds", 2, 3, 66.67},
		{"negative current clamped", -3, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Percentage(tt.current, tt.total))
		})
	}
}

func TestProgressAtClampsCurrent(t *testing.T) {
	t.Parallel()

	p := progressAt(-2, 10, "warming up")
	assert.Equal(t, 0, p.Current)
	assert.Equal(t, 10, p.Total)
	assert.Equal(t, 0.0, p.Percentage)
	assert.Equal(t, "warming up", p.Message)

	p = progressAt(12, 10, "done")
	assert.Equal(t, 10, p.Current)
	assert.Equal(t, 100.0, p.Percentage)
}
