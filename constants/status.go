package constants

// UploadStage is the canonical stage for one upload as it moves through the
// pipeline. Terminal stages are Done and Failed.
type UploadStage string

// Stable values (these exact strings appear in logs).
const (
	StageReceived   UploadStage = "RECEIVED"
	StageExtracted  UploadStage = "EXTRACTED"
	StageStructured UploadStage = "STRUCTURED"
	StageNormalized UploadStage = "NORMALIZED"
	StagePersisted  UploadStage = "PERSISTED"
	StageDone       UploadStage = "DONE"
	StageFailed     UploadStage = "FAILED"
)

// LogStatusSuccessful is the status recorded on a processing_logs row after a
// menu commits.
const LogStatusSuccessful = "successful"
