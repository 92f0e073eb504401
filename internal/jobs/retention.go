package jobs

import (
	"context"
	"time"

	"mediaforge/internal/config"
	"mediaforge/internal/metrics"
	"mediaforge/internal/model"
)

// RetentionStats captures the number of jobs deleted by TTL cleanup.
type RetentionStats struct {
	JobsDeleted map[string]int64 `json:"jobsDeleted"`
}

// CleanupExpiredData deletes terminal jobs older than the configured
// retention so that the database does not grow without bound. Only
// complete and failed jobs are ever deleted.
func CleanupExpiredData(ctx context.Context, cfg config.RetentionConfig, st Store, now time.Time) RetentionStats {
	stats := RetentionStats{JobsDeleted: make(map[string]int64)}
	if !cfg.Enabled {
		return stats
	}

	var imageKinds, videoKinds []model.Kind
	for _, k := range model.Kinds {
		if k.IsVideo() {
			videoKinds = append(videoKinds, k)
		} else {
			imageKinds = append(imageKinds, k)
		}
	}

	// Helper to compute effective TTL, falling back to defaultDays when
	// a specific value is not provided.
	effectiveDays := func(specific int) int {
		if specific > 0 {
			return specific
		}
		return cfg.Jobs.DefaultDays
	}

	apply := func(group string, kinds []model.Kind, days int) {
		if days <= 0 || len(kinds) == 0 {
			return
		}
		cutoff := now.AddDate(0, 0, -days)
		if n, err := st.DeleteExpiredJobs(ctx, kinds, cutoff); err == nil && n > 0 {
			stats.JobsDeleted[group] += n
			metrics.RecordRetentionJobs(group, n)
		}
	}

	apply("image", imageKinds, effectiveDays(cfg.Jobs.ImageDays))
	apply("video", videoKinds, effectiveDays(cfg.Jobs.VideoDays))

	return stats
}
