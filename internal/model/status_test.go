package model

import "testing"

func TestTaskStatusStates(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		active   bool
		finished bool
	}{
		{TaskStatusPending, false, false},
		{TaskStatusStarting, true, false},
		{TaskStatusDownloading, true, false},
		{TaskStatusProcessing, true, false},
		{TaskStatusStopped, false, true},
		{TaskStatusCompleted, false, true},
		{TaskStatusError, false, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsActive(); got != tt.active {
			t.Errorf("TaskStatus(%s).IsActive() = %v, want %v", tt.status, got, tt.active)
		}
		if got := tt.status.IsFinished(); got != tt.finished {
			t.Errorf("TaskStatus(%s).IsFinished() = %v, want %v", tt.status, got, tt.finished)
		}
	}
}

func TestTaskStatusString(t *testing.T) {
	if got := TaskStatusDownloading.String(); got != "Downloading" {
		t.Errorf("String() = %s, want Downloading", got)
	}
}
