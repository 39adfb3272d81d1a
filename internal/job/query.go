package job

import (
	"context"
	"slices"
	"time"
)

// ListParams filters and paginates a job listing.
type ListParams struct {
	Page     int
	PageSize int
	Status   Status // empty matches all
	Tag      string // empty matches all
}

// ListResult is one page of a filtered listing. Jobs are list views: results
// and summary are stripped, full payloads come from Get.
type ListResult struct {
	Jobs     []*Job `json:"jobs"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// Stats is an aggregate view over every job in the registry.
type Stats struct {
	Total      int            `json:"total_jobs"`
	ByStatus   map[string]int `json:"by_status"`
	RecentJobs int            `json:"recent_jobs"` // created in the last 24h
}

// List returns one page of jobs matching the filters, newest first. Total
// counts the whole filtered set, not the page. Out-of-range pages return an
// empty page with the correct total.
func (r *Registry) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	jobs, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	filtered := jobs[:0]
	for _, j := range jobs {
		if params.Status != "" && j.Status != params.Status {
			continue
		}
		if params.Tag != "" && !slices.Contains(j.Tags, params.Tag) {
			continue
		}
		filtered = append(filtered, j)
	}

	slices.SortFunc(filtered, func(a, b *Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(filtered)
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	if start > total {
		start, end = total, total
	}

	views := make([]*Job, 0, end-start)
	for _, j := range filtered[start:end] {
		views = append(views, j.ListView())
	}

	return &ListResult{
		Jobs:     views,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Stats aggregates job counts by status plus the number of jobs created in
// the last 24 hours.
func (r *Registry) Stats(ctx context.Context) (*Stats, error) {
	jobs, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:    len(jobs),
		ByStatus: make(map[string]int),
	}
	cutoff := r.now().UTC().Add(-24 * time.Hour)
	for _, j := range jobs {
		stats.ByStatus[string(j.Status)]++
		if j.CreatedAt.After(cutoff) {
			stats.RecentJobs++
		}
	}
	return stats, nil
}
