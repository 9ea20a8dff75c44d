package domain

import "strings"

// Status vocabularies are small and historically free-form: upstream writers have
// stored "Completed", "completed" and "in-progress" interchangeably. Normalize
// parses a raw status once at the storage boundary; anything unrecognized is kept
// verbatim and simply never matches a known bucket.

const (
	TaskCompleted  = "completed"
	TaskInProgress = "in progress"
	TaskPending    = "pending"
)

const (
	FollowupPending          = "pending"
	FollowupAwaitingResponse = "awaiting response"
	FollowupCompleted        = "completed"
	FollowupCancelled        = "cancelled"
)

const (
	MilestoneCompleted = "completed"
)

const (
	LeadConverted = "converted"
)

const RoleAdmin = "admin"

// NormalizeStatus lowercases a status and folds hyphenated spellings ("in-progress")
// into the spaced form.
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(s, "-", " ")
}

// StatusIs reports whether a raw status matches a normalized vocabulary entry.
func StatusIs(raw, want string) bool {
	return NormalizeStatus(raw) == want
}

// IsAdmin matches the role case-insensitively; administrators are excluded from
// staff-facing reports.
func IsAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}
