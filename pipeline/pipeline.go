package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/queries"
	"github.com/tarungka/sift/sinks"
	"github.com/tarungka/sift/sources"
	"github.com/tarungka/sift/stream"
)

// DataSource is one configured input of flow records. Run pushes every
// record it produces into head synchronously and returns once the input is
// exhausted or the pipeline raises an error.
type DataSource interface {

	// Parse and configure the Source
	Init(args sources.SourceConfig) error

	// Connect to the Source
	Connect(context.Context) error

	// Run drives the pipeline: one Accept per record, one Flush per
	// closed epoch, in input order
	Run(ctx context.Context, head stream.Operator) error

	// Get the key
	Key() (string, error)

	// Name of the Source
	Name() string

	// Info about the Source
	Info() string

	// Disconnect the application from the source
	Disconnect() error
}

// DataSink is one configured output. It is an ordinary operator (the tail
// of the chain) plus the connection lifecycle around it.
type DataSink interface {
	stream.Operator

	// Parse and configure the Sink
	Init(args sinks.SinkConfig) error

	// Connect to the Sink
	Connect(context.Context) error

	// Get the key
	Key() (string, error)

	// Name of the Sink
	Name() string

	// Info about the Sink
	Info() string

	// Disconnect the application from the sink
	Disconnect() error
}

// DataPipeline binds a source to a sink through a query from the catalog.
// A pipeline without a query runs "ident".
type DataPipeline struct {
	Source DataSource
	Sink   DataSink
	Query  string

	id     uuid.UUID
	key    string
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	runErr  error
}

// Create a new DataPipeline and initialize it
func NewDataPipeline(source DataSource, sink DataSink, query string) *DataPipeline {
	if query == "" {
		query = "ident"
	}
	return &DataPipeline{
		Source: source,
		Sink:   sink,
		Query:  query,
		id:     uuid.New(),
	}
}

// Set the source of the data pipeline
func (dp *DataPipeline) SetSource(source DataSource) {
	log.Trace().Msgf("Setting source %s", source.Info())
	dp.Source = source
}

// Set the sink of the data pipeline
func (dp *DataPipeline) SetSink(sink DataSink) {
	log.Trace().Msgf("Setting sink %s", sink.Info())
	dp.Sink = sink
}

// Set the query of the data pipeline
func (dp *DataPipeline) SetQuery(query string) {
	log.Trace().Msgf("Setting query %s", query)
	dp.Query = query
}

// Run connects the source and sink, assembles the query onto the sink and
// drives records through it until the source is exhausted, done is closed,
// or the chain raises an error. Errors end the run; nothing is skipped or
// retried.
func (dp *DataPipeline) Run(done <-chan struct{}, wg *sync.WaitGroup) error {
	defer func() {
		log.Trace().Msgf("Pipeline run is done/returning [%v]", dp.Sink.Info())
		wg.Done()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	dp.cancel = cancel
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := dp.Source.Connect(ctx); err != nil {
		log.Err(err).Msg("Error when connecting to source")
		return dp.finish(err)
	}
	if err := dp.Sink.Connect(ctx); err != nil {
		log.Err(err).Msg("Error when connecting to sink")
		return dp.finish(err)
	}

	heads, err := queries.Build(dp.Query, dp.Sink)
	if err != nil {
		log.Err(err).Str("query", dp.Query).Msg("Error when building query")
		return dp.finish(err)
	}
	head := stream.Fanout(heads...)

	dp.setRunning(true)
	defer dp.setRunning(false)

	if err := dp.Source.Run(ctx, head); err != nil {
		log.Err(err).Str("query", dp.Query).Msg("Pipeline halted on error")
		return dp.finish(err)
	}
	return dp.finish(nil)
}

// Shows `source name` -> `query` -> `sink name`
func (dp *DataPipeline) Show() (string, error) {
	return dp.Source.Name() + " -> " + dp.Query + " -> " + dp.Sink.Name(), nil
}

// ID is the unique id assigned at creation.
func (dp *DataPipeline) ID() uuid.UUID {
	return dp.id
}

// Running reports whether the pipeline is currently consuming records, and
// the error it halted on if it is not.
func (dp *DataPipeline) Running() (bool, error) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.running, dp.runErr
}

// Close the data pipeline
func (dp *DataPipeline) Close() error {
	dpInfo, _ := dp.Show()
	log.Info().Msgf("Closing data pipeline: %s", dpInfo)

	if dp.cancel != nil {
		dp.cancel()
	}

	srcErr := dp.Source.Disconnect()
	snkErr := dp.Sink.Disconnect()
	if srcErr != nil {
		return srcErr
	}
	return snkErr
}

func (dp *DataPipeline) setRunning(v bool) {
	dp.mu.Lock()
	dp.running = v
	dp.mu.Unlock()
}

func (dp *DataPipeline) finish(err error) error {
	dp.mu.Lock()
	dp.runErr = err
	dp.mu.Unlock()
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", dp.id, err)
	}
	return nil
}
