package model

// TaskStatus tracks a job through the extraction and download pipeline.
type TaskStatus string

const (
	// TaskStatusPending means the job is queued but not started.
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusStarting means extraction is resolving the job's URL.
	TaskStatusStarting TaskStatus = "Starting"

	// TaskStatusDownloading means formats are being fetched.
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusProcessing means downloaded files are being post-processed.
	TaskStatusProcessing TaskStatus = "Processing"

	// TaskStatusStopped means the run hit its download limit or was
	// cancelled before the job finished.
	TaskStatusStopped TaskStatus = "Stopped"

	// TaskStatusCompleted means the job finished successfully.
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the job failed.
	TaskStatusError TaskStatus = "Error"
)

// String returns the status name.
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive reports whether the job is still being worked on.
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusStarting || ts == TaskStatusDownloading || ts == TaskStatusProcessing
}

// IsFinished reports whether the job reached a terminal state.
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusStopped || ts == TaskStatusError
}
