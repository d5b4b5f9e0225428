package backup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"warden/internal/storage"
	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// Pruner deletes artifacts that fall outside the platform's retention
// policy. It only ever considers artifacts matching the canonical naming
// scheme for the given deployment; anything else in the store is left
// alone.
type Pruner struct {
	target storage.Target
	now    func() time.Time
}

func NewPruner(target storage.Target) *Pruner {
	return &Pruner{target: target, now: time.Now}
}

// prunable is one retention candidate.
type prunable struct {
	key       string
	createdAt time.Time
}

// Prune evaluates the policy against the deployment's artifacts and
// deletes the losers. The single most recent artifact is always retained,
// whatever the policy says. Returns the deleted keys.
func (p *Pruner) Prune(ctx context.Context, deployment string, policy *wardenv1alpha1.BackupPolicy) ([]string, error) {
	if policy == nil {
		return nil, nil
	}

	objects, err := p.target.List(ctx, deployment+"-")
	if err != nil {
		return nil, err
	}

	var candidates []prunable
	for _, obj := range objects {
		name, createdAt, _, err := ParseArtifactName(obj.Key)
		if err != nil || name != deployment {
			continue
		}
		candidates = append(candidates, prunable{key: obj.Key, createdAt: createdAt})
	}
	if len(candidates) <= 1 {
		return nil, nil
	}

	// Newest first. The head is the safety floor and never deleted.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].createdAt.After(candidates[j].createdAt)
	})

	keep := p.selectKeepers(candidates, policy)

	var deleted []string
	for _, c := range candidates {
		if keep[c.key] {
			continue
		}
		if err := p.target.Delete(ctx, c.key); err != nil {
			return deleted, err
		}
		logging.Info("Backup", "Pruned artifact %s", c.key)
		deleted = append(deleted, c.key)
	}
	return deleted, nil
}

// selectKeepers marks the artifacts that survive. candidates must be
// sorted newest first.
func (p *Pruner) selectKeepers(candidates []prunable, policy *wardenv1alpha1.BackupPolicy) map[string]bool {
	keep := make(map[string]bool, len(candidates))
	keep[candidates[0].key] = true

	now := p.now()

	if policy.Retention != nil {
		p.keepBuckets(keep, candidates, policy.Retention)
		if policy.Retention.MaxAgeDays > 0 {
			p.dropOlderThan(keep, candidates, now, policy.Retention.MaxAgeDays)
		}
		return keep
	}

	// Simple mode: a max count and a max age.
	limit := len(candidates)
	if policy.MaxBackups != nil && int(*policy.MaxBackups) < limit {
		limit = int(*policy.MaxBackups)
	}
	for _, c := range candidates[:limit] {
		keep[c.key] = true
	}
	if policy.RetentionDays > 0 {
		p.dropOlderThan(keep, candidates, now, policy.RetentionDays)
	}
	return keep
}

// keepBuckets marks the newest artifact of each day, ISO week, month, and
// year, up to the configured counts.
func (p *Pruner) keepBuckets(keep map[string]bool, candidates []prunable, spec *wardenv1alpha1.RetentionSpec) {
	type bucketFn func(t time.Time) string
	buckets := []struct {
		count int32
		fn    bucketFn
	}{
		{spec.Daily, func(t time.Time) string { return t.Format("2006-01-02") }},
		{spec.Weekly, func(t time.Time) string {
			year, week := t.ISOWeek()
			return fmt.Sprintf("%d-w%02d", year, week)
		}},
		{spec.Monthly, func(t time.Time) string { return t.Format("2006-01") }},
		{spec.Yearly, func(t time.Time) string { return t.Format("2006") }},
	}

	for _, b := range buckets {
		if b.count <= 0 {
			continue
		}
		seen := make(map[string]bool)
		for _, c := range candidates {
			label := b.fn(c.createdAt)
			if seen[label] {
				continue
			}
			seen[label] = true
			keep[c.key] = true
			if int32(len(seen)) >= b.count {
				break
			}
		}
	}
}

// dropOlderThan unmarks artifacts past the age limit, except the safety
// floor at candidates[0].
func (p *Pruner) dropOlderThan(keep map[string]bool, candidates []prunable, now time.Time, maxAgeDays int32) {
	cutoff := now.AddDate(0, 0, -int(maxAgeDays))
	for _, c := range candidates[1:] {
		if c.createdAt.Before(cutoff) {
			delete(keep, c.key)
		}
	}
}
