package domain

// JobStatus is the processing state of an upstream pipeline job.
type JobStatus string

const (
	// JobProcessing means chunks are still streaming in.
	JobProcessing JobStatus = "processing"
	// JobComplete means all chunks have been produced.
	JobComplete JobStatus = "complete"
	// JobFailed means the pipeline gave up on the job.
	JobFailed JobStatus = "failed"
)

// Job describes one pre-processed book/video/subtitle job.
type Job struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Status     JobStatus `json:"status"`
	ChunkCount int       `json:"chunk_count"`
}
