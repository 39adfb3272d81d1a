package observability

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys
const (
	attrMethod  = "method"
	attrPath    = "path"
	attrStatus  = "status"
	attrJobType = "job_type"
	attrSuccess = "success"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String(attrPath, normalizePath(path))
}

func statusAttr(code int) attribute.KeyValue {
	// Group status codes to reduce cardinality
	// 200-299 -> 2xx, 400-499 -> 4xx, 5xx...
	return attribute.String(attrStatus, fmt.Sprintf("%dxx", code/100))
}

func jobTypeAttr(jobType string) attribute.KeyValue {
	return attribute.String(attrJobType, jobType)
}

func successAttr(success bool) attribute.KeyValue {
	return attribute.Bool(attrSuccess, success)
}

// normalizePath replaces the job id path segment with a placeholder to keep
// metric cardinality bounded: /jobs/<uuid>/cancel -> /jobs/{jobId}/cancel.
func normalizePath(path string) string {
	const prefix = "/jobs/"
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" {
		return path
	}
	// static sub-routes keep their real path
	if rest == "stats/summary" || rest == "cleanup" {
		return path
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return prefix + "{jobId}" + rest[idx:]
	}
	return prefix + "{jobId}"
}
