package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// RunID tags every log line of one invocation
	RunID string

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Stdout receives command output, Fs the report files
	Stdout io.Writer
	Fs     afero.Fs
	Logger zerolog.Logger

	// StartedAt marks the start of the run
	StartedAt time.Time

	// Progress reporting
	ProgressCallback func(ProgressUpdate)
}

// NewContext creates a new application context with a fresh run ID
func NewContext() *Context {
	return &Context{
		Context:      context.Background(),
		RunID:        uuid.NewString(),
		OutputFormat: "table",
		Stdout:       os.Stdout,
		Fs:           afero.NewOsFs(),
		Logger:       zerolog.Nop(),
		StartedAt:    time.Now(),
	}
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(ProgressUpdate)) {
	c.ProgressCallback = callback
}

// Progress reports that completed of total steps are done, if a callback
// is set
func (c *Context) Progress(message string, completed, total int64) {
	if c.ProgressCallback == nil {
		return
	}
	c.ProgressCallback(ProgressUpdate{
		Message:     message,
		Completed:   completed,
		Total:       total,
		StartedAt:   c.StartedAt,
		ElapsedTime: time.Since(c.StartedAt),
	})
}

// Log records a debug message; it shows with --verbose
func (c *Context) Log(message string) {
	c.Logger.Debug().Msg(message)
}
