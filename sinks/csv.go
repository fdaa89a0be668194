package sinks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/stream"
)

// CSVSink writes records as comma-separated rows. The header and the column
// order are fixed by the first record's canonical field order; later records
// are expected to share that shape, which holds for any single query's
// output. An optional static column is prepended to every row, useful for
// tagging which query produced the line when several share one file.
type CSVSink struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	filePath    string
	header      bool
	staticName  string
	staticValue string

	w      io.Writer
	file   *os.File
	fields []string
	first  bool
	mu     sync.Mutex
}

// NewCSVSink writes to an explicit writer with an optional "name,value"
// static column. header controls whether the first row is a header line.
func NewCSVSink(w io.Writer, header bool) *CSVSink {
	return &CSVSink{w: w, header: header, first: true}
}

// WithStaticColumn prepends a constant column to the header and every row.
func (c *CSVSink) WithStaticColumn(name, value string) *CSVSink {
	c.staticName = name
	c.staticValue = value
	return c
}

func (c *CSVSink) Init(args SinkConfig) error {
	c.pipelineKey = args.Key
	c.pipelineName = args.Name
	c.pipelineConnectionType = args.ConnectionType
	c.filePath = args.Config["file_path"]
	c.header = args.Config["header"] != "false"
	c.staticName = args.Config["static_name"]
	c.staticValue = args.Config["static_value"]
	c.first = true
	return nil
}

func (c *CSVSink) Connect(ctx context.Context) error {
	if c.w != nil {
		return nil
	}
	if c.filePath == "" {
		c.w = os.Stdout
		return nil
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Err(err).Str("directory", dir).Msg("Failed to create parent directories")
		return fmt.Errorf("failed to create parent directories: %w", err)
	}
	file, err := os.OpenFile(c.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Err(err).Str("file_path", c.filePath).Msg("Failed to open file")
		return fmt.Errorf("failed to open file: %w", err)
	}
	c.file = file
	c.w = file
	return nil
}

func (c *CSVSink) Accept(r stream.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.first {
		c.fields = r.Fields()
		if c.header {
			cols := c.fields
			if c.staticName != "" {
				cols = append([]string{c.staticName}, cols...)
			}
			if _, err := fmt.Fprintln(c.w, strings.Join(cols, ",")); err != nil {
				return err
			}
		}
		c.first = false
	}

	row := make([]string, 0, len(c.fields)+1)
	if c.staticName != "" {
		row = append(row, c.staticValue)
	}
	for _, f := range c.fields {
		v, ok := r[f]
		if !ok {
			return &stream.MissingFieldError{Field: f}
		}
		row = append(row, v.String())
	}
	_, err := fmt.Fprintln(c.w, strings.Join(row, ","))
	return err
}

// Flush is a no-op: CSV output has no window markers.
func (c *CSVSink) Flush(stream.Record) error { return nil }

func (c *CSVSink) Disconnect() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

func (c *CSVSink) Key() (string, error) {
	if c.pipelineKey == "" {
		return "", fmt.Errorf("no pipeline key is set")
	}
	return c.pipelineKey, nil
}

func (c *CSVSink) Name() string { return c.pipelineName }

func (c *CSVSink) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", c.pipelineKey, c.pipelineName, c.pipelineConnectionType)
}
