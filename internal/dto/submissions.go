package dto

// SubmissionFilter narrows the admin listing of journal entries.
type SubmissionFilter struct {
	Limit   int
	Outcome string
}
