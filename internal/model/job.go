package model

// FileJob carries one file through a processing pipeline.
// Steps read and fill the fields in order; the job records its own failure
// so that a batch can keep going past a bad file.
type FileJob struct {
	// Name is the file name, used for logging and as the output name.
	Name string `json:"name"`

	// InputPath and OutputPath are the source and destination files.
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`

	// Input is the raw file content once read.
	Input string `json:"-"`

	// Output is the transformed content to be written.
	Output string `json:"-"`

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the first step failure. Nil on success.
	Error error `json:"-"`

	// ErrorMessage is Error as text for serialized output.
	ErrorMessage string `json:"error,omitempty"`
}

// NewFileJob creates a job for the given input and output paths.
func NewFileJob(name, inputPath, outputPath string) *FileJob {
	return &FileJob{
		Name:           name,
		InputPath:      inputPath,
		OutputPath:     outputPath,
		PerformedSteps: make([]string, 0),
	}
}

// Failed reports whether a step failed.
func (j *FileJob) Failed() bool {
	return j.Error != nil
}

// BatchSummary is the outcome of processing a directory of files.
type BatchSummary struct {
	// Processed lists the names of files written successfully.
	Processed []string `json:"processed"`

	// Failed maps file names to their error message.
	Failed map[string]string `json:"failed"`
}

// NewBatchSummary builds a summary from finished jobs. Nil jobs, left by a
// cancelled batch, are skipped.
func NewBatchSummary(jobs []*FileJob) *BatchSummary {
	s := &BatchSummary{
		Processed: make([]string, 0, len(jobs)),
		Failed:    make(map[string]string),
	}
	for _, j := range jobs {
		if j == nil {
			continue
		}
		if j.Failed() {
			s.Failed[j.Name] = j.ErrorMessage
			continue
		}
		s.Processed = append(s.Processed, j.Name)
	}
	return s
}
