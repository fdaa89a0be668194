package sources

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/stream"
)

// CSVSource reads pre-aggregated flow summaries in Walt's CSV layout:
//
//	src_ip,dst_ip,src_l4_port,dst_l4_port,packet_count,byte_count,epoch_id
//
// one flow per line, epoch ids non-decreasing. Because the rows already
// carry epoch ids, pipelines fed from this source skip the epoch operator:
// the source itself emits one Flush per elapsed epoch, tagging the context
// with the number of rows the epoch contained.
type CSVSource struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	filePath string
	eidField string

	file *os.File
	r    io.Reader
}

// NewCSVSource reads from an explicit reader; Init/Connect drive the
// file-backed configuration path instead.
func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{r: r, eidField: stream.DefaultEpochField}
}

func (c *CSVSource) Init(args SourceConfig) error {
	c.pipelineKey = args.Key
	c.pipelineName = args.Name
	c.pipelineConnectionType = args.ConnectionType
	c.eidField = args.Config["epoch_field"]
	if c.eidField == "" {
		c.eidField = stream.DefaultEpochField
	}

	if args.Config["file_path"] == "" {
		log.Error().Msg("Missing file_path in config")
		return fmt.Errorf("missing file_path")
	}
	c.filePath = args.Config["file_path"]
	return nil
}

func (c *CSVSource) Connect(ctx context.Context) error {
	if c.r != nil {
		return nil
	}
	file, err := os.Open(c.filePath)
	if err != nil {
		log.Err(err).Str("file_path", c.filePath).Msg("Failed to open flow capture")
		return err
	}
	c.file = file
	c.r = file
	return nil
}

// Run pushes every row into head synchronously. It returns the first error
// the pipeline raises; the run is over at that point, per the fail-fast
// contract.
func (c *CSVSource) Run(ctx context.Context, head stream.Operator) error {
	scanner := bufio.NewScanner(c.r)

	eid := int64(0)
	rows := int64(0)
	line := 0

	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		rec, rowEpoch, err := c.parseRow(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if rowEpoch < eid {
			return fmt.Errorf("line %d: %w", line, &stream.EpochRegressionError{
				Field: c.eidField,
				Prev:  strconv.FormatInt(eid, 10),
				Got:   strconv.FormatInt(rowEpoch, 10),
			})
		}

		for rowEpoch > eid {
			if err := head.Flush(c.flushContext(eid, rows)); err != nil {
				return err
			}
			rows = 0
			eid++
		}

		if err := head.Accept(rec); err != nil {
			return err
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// End of stream: close the final epoch.
	return head.Flush(c.flushContext(eid, rows))
}

func (c *CSVSource) flushContext(eid, rows int64) stream.Record {
	return stream.Record{
		c.eidField: stream.IntValue(eid),
		"tuples":   stream.IntValue(rows),
	}
}

func (c *CSVSource) parseRow(text string) (stream.Record, int64, error) {
	cols := strings.Split(text, ",")
	if len(cols) != 7 {
		return nil, 0, fmt.Errorf("expected 7 columns, got %d", len(cols))
	}

	src, err := ipOrZero(strings.TrimSpace(cols[0]))
	if err != nil {
		return nil, 0, err
	}
	dst, err := ipOrZero(strings.TrimSpace(cols[1]))
	if err != nil {
		return nil, 0, err
	}

	ints := make([]int64, 5)
	for i, col := range cols[2:] {
		n, err := strconv.ParseInt(strings.TrimSpace(col), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("column %d: %w", i+3, err)
		}
		ints[i] = n
	}

	rec := stream.Record{
		"ipv4.src":     src,
		"ipv4.dst":     dst,
		"l4.sport":     stream.IntValue(ints[0]),
		"l4.dport":     stream.IntValue(ints[1]),
		"packet_count": stream.IntValue(ints[2]),
		"byte_count":   stream.IntValue(ints[3]),
		c.eidField:     stream.IntValue(ints[4]),
	}
	return rec, ints[4], nil
}

// ipOrZero handles the capture convention of writing "0" for an absent
// address.
func ipOrZero(s string) (stream.Value, error) {
	if s == "0" {
		return stream.IntValue(0), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return stream.Empty, fmt.Errorf("bad address %q: %w", s, err)
	}
	return stream.IPv4Value(addr), nil
}

func (c *CSVSource) Disconnect() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

func (c *CSVSource) Key() (string, error) {
	if c.pipelineKey == "" {
		return "", fmt.Errorf("no pipeline key is set")
	}
	return c.pipelineKey, nil
}

func (c *CSVSource) Name() string { return c.pipelineName }

func (c *CSVSource) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", c.pipelineKey, c.pipelineName, c.pipelineConnectionType)
}
