package output

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/dunamismax/scriptdeploy/pkg/models"
)

// progressTemplate shows counters, the bar, and the file being processed
const progressTemplate = `{{ counters . }} {{ bar . "[" "=" ">" " " "]" }} {{ percent . }} {{ string . "file" }}`

// ProgressFormatter renders a live progress bar during the run and a
// human-readable summary at completion
type ProgressFormatter struct {
	mu      sync.Mutex
	bar     *pb.ProgressBar
	summary *HumanFormatter
}

// NewProgressFormatter creates a new progress-bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{
		summary: NewHumanFormatter(),
	}
}

// Start prints the preamble and starts the bar
func (f *ProgressFormatter) Start(writer io.Writer, op *models.DeployOperation, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}

	if err := f.summary.Start(writer, op, totalFiles); err != nil {
		return err
	}

	bar := pb.New(totalFiles)
	bar.SetTemplateString(progressTemplate)
	bar.SetWriter(writer)
	bar.SetWidth(barWidth(writer))
	bar.Set("file", "")
	f.bar = bar.Start()

	return nil
}

// Progress advances the bar as files complete
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case "file_start":
		f.bar.Set("file", update.Path)
	case "file_complete", "file_error":
		f.bar.Increment()
	}

	return nil
}

// Complete finishes the bar and prints the summary
func (f *ProgressFormatter) Complete(result *models.DeploymentResult) error {
	f.mu.Lock()
	if f.bar != nil {
		f.bar.Set("file", "")
		f.bar.Finish()
		f.bar = nil
	}
	f.mu.Unlock()

	return f.summary.Complete(result)
}

// Error finishes the bar and reports the error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
	f.mu.Unlock()

	return f.summary.Error(err)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

// barWidth keeps the bar inside the terminal, defaulting when the writer
// is a pipe or redirect
func barWidth(writer io.Writer) int {
	width := 80
	if file, ok := writer.(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	if width > 110 {
		width = 110
	}
	return width
}
