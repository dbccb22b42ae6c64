package domain

// JobKind identifies what a scrape job targets.
type JobKind string

const (
	JobKindVideo   JobKind = "video"
	JobKindChannel JobKind = "channel"
)

// JobStatus represents the status of a scrape job.
// Running is the only non-terminal status; the rest never transition.
type JobStatus string

const (
	JobStatusRunning               JobStatus = "running"
	JobStatusCompleted             JobStatus = "completed"
	JobStatusCompletedWithWarnings JobStatus = "completed_with_warnings"
	JobStatusCompletedWithError    JobStatus = "completed_with_error"
	JobStatusFailed                JobStatus = "failed"
)

// JobDescriptor identifies a submitted, currently-running job.
type JobDescriptor struct {
	Kind   JobKind `json:"type"`
	Target string  `json:"id"`
	// MaxItems is only meaningful for channel jobs.
	MaxItems int `json:"max_videos,omitempty"`
}

// Diagnostic carries structured error or warning detail on an outcome.
type Diagnostic struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// JobOutcome is the result of the last completed job, until the next
// job replaces it.
type JobOutcome struct {
	Status     JobStatus    `json:"-"`
	Kind       JobKind      `json:"job_type"`
	Target     string       `json:"identifier"`
	MaxItems   int          `json:"max_videos,omitempty"`
	Count      int          `json:"count"`
	Items      []RecordView `json:"data"`
	Warning    string       `json:"warning,omitempty"`
	Diagnostic *Diagnostic  `json:"diagnostic,omitempty"`
}
