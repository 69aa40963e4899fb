// Package delivery sends aggregated prompt text to its destinations.
package delivery

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
)

const (
	outputDirectoryPermissions = 0o755
	outputFilePermissions      = 0o600
)

// Sink receives the aggregated text.
type Sink interface {
	Deliver(text string) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(string) error

// Deliver invokes the underlying function.
func (sink SinkFunc) Deliver(text string) error {
	return sink(text)
}

// WriterSink writes the text followed by a newline to an io.Writer.
type WriterSink struct {
	Writer io.Writer
}

// NewWriterSink constructs a WriterSink.
func NewWriterSink(writer io.Writer) WriterSink {
	return WriterSink{Writer: writer}
}

// Deliver writes text to the underlying writer.
func (sink WriterSink) Deliver(text string) error {
	if sink.Writer == nil {
		return errors.New("nil writer")
	}
	if _, err := fmt.Fprintln(sink.Writer, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// FileSink stores the text in a file, creating parent directories.
type FileSink struct {
	Path string
}

// NewFileSink constructs a FileSink.
func NewFileSink(path string) FileSink {
	return FileSink{Path: path}
}

// Deliver writes text to the configured path, replacing existing content.
func (sink FileSink) Deliver(text string) error {
	if sink.Path == "" {
		return errors.New("empty output path")
	}
	if err := os.MkdirAll(filepath.Dir(sink.Path), outputDirectoryPermissions); err != nil {
		return fmt.Errorf("create output directory for %s: %w", sink.Path, err)
	}
	if err := os.WriteFile(sink.Path, []byte(text), outputFilePermissions); err != nil {
		return fmt.Errorf("write output file %s: %w", sink.Path, err)
	}
	return nil
}

// ClipboardSink copies the text to the system clipboard.
type ClipboardSink struct {
	write func(string) error
}

// NewClipboardSink constructs a ClipboardSink backed by github.com/atotto/clipboard.
func NewClipboardSink() ClipboardSink {
	return ClipboardSink{write: clipboard.WriteAll}
}

// Deliver copies text to the clipboard.
func (sink ClipboardSink) Deliver(text string) error {
	write := sink.write
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// Fanout delivers text to every sink, continuing past failures.
type Fanout []Sink

// Deliver calls each sink in order and joins their errors.
func (fanout Fanout) Deliver(text string) error {
	var deliveryErrors []error
	for _, sink := range fanout {
		if sink == nil {
			continue
		}
		if err := sink.Deliver(text); err != nil {
			deliveryErrors = append(deliveryErrors, err)
		}
	}
	return errors.Join(deliveryErrors...)
}

var (
	_ Sink = WriterSink{}
	_ Sink = FileSink{}
	_ Sink = ClipboardSink{}
	_ Sink = Fanout{}
	_ Sink = SinkFunc(nil)
)
