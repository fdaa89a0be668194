package sinks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/stream"
)

// DumpSink prints every record it receives as human-readable
// `"field" => value, ` lines. With ShowReset set it also prints the flush
// context followed by a [reset] marker, which makes window boundaries
// visible when eyeballing output.
type DumpSink struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	filePath  string
	showReset bool

	w    io.Writer
	file *os.File
	mu   sync.Mutex
}

// NewDumpSink writes to an explicit writer, the shape the tests and the
// generator demo use. Init/Connect drive the file-backed configuration path
// instead.
func NewDumpSink(w io.Writer, showReset bool) *DumpSink {
	return &DumpSink{w: w, showReset: showReset}
}

func (d *DumpSink) Init(args SinkConfig) error {
	d.pipelineKey = args.Key
	d.pipelineName = args.Name
	d.pipelineConnectionType = args.ConnectionType
	d.filePath = args.Config["file_path"]
	d.showReset = args.Config["show_reset"] == "true"
	return nil
}

func (d *DumpSink) Connect(ctx context.Context) error {
	if d.w != nil {
		return nil
	}
	if d.filePath == "" {
		d.w = os.Stdout
		return nil
	}

	dir := filepath.Dir(d.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Err(err).Str("directory", dir).Msg("Failed to create parent directories")
		return fmt.Errorf("failed to create parent directories: %w", err)
	}
	file, err := os.OpenFile(d.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Err(err).Str("file_path", d.filePath).Msg("Failed to open file")
		return fmt.Errorf("failed to open file: %w", err)
	}
	d.file = file
	d.w = file
	return nil
}

func (d *DumpSink) Accept(r stream.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := fmt.Fprintf(d.w, "%s\n", r)
	return err
}

func (d *DumpSink) Flush(ctx stream.Record) error {
	if !d.showReset {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintf(d.w, "%s\n", ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.w, "[reset]")
	return err
}

func (d *DumpSink) Disconnect() error {
	if d.file == nil {
		return nil
	}
	if err := d.file.Close(); err != nil {
		log.Err(err).Msg("Failed to close dump file")
		return err
	}
	return nil
}

func (d *DumpSink) Key() (string, error) {
	if d.pipelineKey == "" {
		return "", fmt.Errorf("no pipeline key is set")
	}
	return d.pipelineKey, nil
}

func (d *DumpSink) Name() string { return d.pipelineName }

func (d *DumpSink) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", d.pipelineKey, d.pipelineName, d.pipelineConnectionType)
}
