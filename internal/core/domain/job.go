package domain

import "time"

// JobState is the lifecycle state of an indexing job.
type JobState string

const (
	// JobPending means the job is created but not yet processing.
	JobPending JobState = "pending"

	// JobRunning means the job is processing documents.
	JobRunning JobState = "running"

	// JobCompleted means every target document was attempted.
	// Individual documents may still have failed; see Outcomes.
	JobCompleted JobState = "completed"

	// JobCancelled means the job stopped at a document boundary
	// after a cancel request. Already-indexed documents persist.
	JobCancelled JobState = "cancelled"

	// JobFailed means the job aborted before per-document
	// processing could run (e.g. the corpus could not be listed).
	JobFailed JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobCancelled || s == JobFailed
}

// DocumentOutcome records how one document fared during a job.
type DocumentOutcome struct {
	// DocumentID is the processed document.
	DocumentID string

	// Chunks is the number of chunks embedded and stored.
	Chunks int

	// Err holds the failure description, empty on success.
	Err string
}

// OK reports whether the document was indexed successfully.
func (o DocumentOutcome) OK() bool {
	return o.Err == ""
}

// IndexJob is a snapshot of one indexing job. Snapshots returned by the
// coordinator are copies; only the coordinator's own execution goroutine
// mutates the live job.
type IndexJob struct {
	// ID is the job identifier.
	ID string

	// TargetDocumentIDs are the documents the job processes.
	TargetDocumentIDs []string

	// State is the current lifecycle state.
	State JobState

	// Completed and Total form the progress pair. Completed counts
	// attempted documents regardless of their outcome.
	Completed int
	Total     int

	// Outcomes holds the per-document results accumulated so far.
	Outcomes []DocumentOutcome

	// StartedAt and FinishedAt bound the job's execution.
	StartedAt  time.Time
	FinishedAt time.Time

	// Err describes why the job failed, for JobFailed only.
	Err string
}
