package models

// ProgressStage identifies a pipeline stage for progress reporting
type ProgressStage string

const (
	StageExtract ProgressStage = "extract"
	StageMatch   ProgressStage = "match"
	StageAlign   ProgressStage = "align"
	StageFuse    ProgressStage = "fuse"
	StagePersist ProgressStage = "persist"
)

// ProgressEvent is a structured progress notification. Progress is an
// observer concern only: it is never part of the result contract.
type ProgressEvent struct {
	Stage   ProgressStage `json:"stage"`
	Message string        `json:"message"`
	Current int           `json:"current,omitempty"`
	Total   int           `json:"total,omitempty"`
}

// ProgressFunc receives progress events during a pipeline run.
// A nil ProgressFunc disables progress reporting.
type ProgressFunc func(ProgressEvent)
