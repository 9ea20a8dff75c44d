// Package metrics holds the pure derivation functions behind the reporting
// engine. Every function is stateless and tolerant of the loose data the record
// store allows: missing dates and zero denominators resolve to zero, never to an
// error, so a report is always renderable.
package metrics

import (
	"math"
	"time"

	"opsdesk/internal/domain"
)

// Unit selects the duration unit for AverageDuration.
type Unit int

const (
	Days Unit = iota
	Hours
)

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CompletionRate returns completed/total as a percentage rounded to two
// decimals. A zero total is defined as a zero rate.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(completed) / float64(total) * 100)
}

// AverageDuration averages end-start over items where both ends are present.
// An empty filtered set averages to zero.
func AverageDuration[T any](items []T, start, end func(T) *time.Time, unit Unit) float64 {
	var sum float64
	var n int
	for _, it := range items {
		s, e := start(it), end(it)
		if s == nil || e == nil {
			continue
		}
		d := e.Sub(*s)
		switch unit {
		case Hours:
			sum += d.Hours()
		default:
			sum += d.Hours() / 24
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return Round2(sum / float64(n))
}

// CountWhere counts items matching the predicate.
func CountWhere[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// Group is a key with its occurrence count.
type Group[K comparable] struct {
	Key   K
	Count int
}

// GroupCount buckets items by key, preserving the order keys are first
// encountered in the input. Items whose key function reports false are skipped.
func GroupCount[T any, K comparable](items []T, key func(T) (K, bool)) []Group[K] {
	index := make(map[K]int)
	var groups []Group[K]
	for _, it := range items {
		k, ok := key(it)
		if !ok {
			continue
		}
		if i, seen := index[k]; seen {
			groups[i].Count++
			continue
		}
		index[k] = len(groups)
		groups = append(groups, Group[K]{Key: k, Count: 1})
	}
	return groups
}

// TopGroup returns the group with the highest count. Ties go to the group whose
// key was encountered first in the input sequence; callers that need a stricter
// ordering must sort their input beforehand.
func TopGroup[K comparable](groups []Group[K]) (Group[K], bool) {
	var best Group[K]
	found := false
	for _, g := range groups {
		if !found || g.Count > best.Count {
			best = g
			found = true
		}
	}
	return best, found
}

// Task bucket predicates. Statuses are free-form strings compared through the
// normalized vocabulary; unrecognized values match nothing.

func TaskCompleted(t domain.Task) bool {
	return domain.StatusIs(t.Status, domain.TaskCompleted)
}

func TaskInProgress(t domain.Task) bool {
	return domain.StatusIs(t.Status, domain.TaskInProgress)
}

// TaskDelayed reports a task updated strictly after its due date; a task
// touched exactly at the due instant is on time.
func TaskDelayed(t domain.Task) bool {
	return t.DueDate != nil && t.UpdatedAt.After(*t.DueDate)
}

func FollowupCompleted(f domain.Followup) bool {
	return domain.StatusIs(f.Status, domain.FollowupCompleted)
}

func FollowupPending(f domain.Followup) bool {
	s := domain.NormalizeStatus(f.Status)
	return s == domain.FollowupPending || s == domain.FollowupAwaitingResponse
}

// FollowupMissed reports a followup completed strictly after its due date.
// Completion before the due date is simply "early", not an anomaly.
func FollowupMissed(f domain.Followup) bool {
	return f.DueDate != nil && f.CompletedDate != nil && f.CompletedDate.After(*f.DueDate)
}

func MilestoneCompleted(m domain.Milestone) bool {
	return domain.StatusIs(m.Status, domain.MilestoneCompleted)
}

// MilestoneDelayDays returns max(0, actual-planned end) in whole days, zero
// when either date is absent.
func MilestoneDelayDays(m domain.Milestone) int {
	if m.EndDate == nil || m.ActualDate == nil {
		return 0
	}
	d := int(m.ActualDate.Sub(*m.EndDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
