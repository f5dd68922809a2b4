package ports

// Resolution sources reported to a Recorder.
const (
	SourceStore    = "store"
	SourceUpstream = "upstream"
	SourceNone     = "none"
)

// Recorder observes resolution outcomes, typically for metrics.
type Recorder interface {
	// ObserveResolution records which source answered an operation.
	ObserveResolution(operation, source string)

	// ObserveWriteBack records the result of a write-back attempt
	// ("stored", "skipped", "failed").
	ObserveWriteBack(result string)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

// ObserveResolution implements Recorder.
func (NopRecorder) ObserveResolution(string, string) {}

// ObserveWriteBack implements Recorder.
func (NopRecorder) ObserveWriteBack(string) {}
