package observability

import "testing"

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/jobs/", "/jobs/"},
		{"/jobs/0b1f6f9e-9f9f-4f6a-8a9c-1c2d3e4f5a6b", "/jobs/{jobId}"},
		{"/jobs/0b1f6f9e-9f9f-4f6a-8a9c-1c2d3e4f5a6b/cancel", "/jobs/{jobId}/cancel"},
		{"/jobs/stats/summary", "/jobs/stats/summary"},
		{"/jobs/cleanup", "/jobs/cleanup"},
		{"/evaluate/async", "/evaluate/async"},
		{"/livez", "/livez"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
