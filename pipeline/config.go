package pipeline

import (
	"fmt"
	"sync"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/sinks"
	"github.com/tarungka/sift/sources"
)

// QueryConfig attaches a catalog query to a pipeline key. Keys without one
// run "ident".
type QueryConfig struct {
	Key   string `koanf:"key" json:"key"`
	Query string `koanf:"query" json:"query"`
}

// DataPipelineConfig collects the configured sources, sinks and queries and
// pairs them up by key into runnable pipelines.
type DataPipelineConfig struct {
	allSourceInterfaces []DataSource
	allSinkInterfaces   []DataSink
	srcIndexMap         map[string][]int // key : [indices of where the source is in the allSourceInterfaces]
	snkIndexMap         map[string][]int // key : [indices of where the sink is in the allSinkInterfaces]
	// Keys can have the value false when a key is created and then deleted
	keys                map[string]bool          // Keys: ifExists
	queriesByKey        map[string]string        // Mapping of {key: query name}
	mappedDataPipelines map[string]*DataPipeline // Mapping of {key: DataPipeline}
}

var (
	pipelineInstance *DataPipelineConfig
	once             sync.Once
)

func (p *DataPipelineConfig) addKey(s string) {

	if p.keys == nil {
		p.keys = make(map[string]bool)
	}

	if !p.keys[s] {
		p.keys[s] = true
	}
}

// ParseConfig unmarshals the sources, sinks and queries sections.
func (p *DataPipelineConfig) ParseConfig(ko *koanf.Koanf) ([]sources.SourceConfig, []sinks.SinkConfig, []QueryConfig, error) {
	var allSourcesConfig []sources.SourceConfig
	var allSinksConfig []sinks.SinkConfig
	var allQueriesConfig []QueryConfig

	if err := ko.Unmarshal("sources", &allSourcesConfig); err != nil {
		log.Err(err).Msg("Error when un-marshaling sources")
		return nil, nil, nil, err
	}
	if err := ko.Unmarshal("sinks", &allSinksConfig); err != nil {
		log.Err(err).Msg("Error when un-marshaling sinks")
		return nil, nil, nil, err
	}
	if err := ko.Unmarshal("queries", &allQueriesConfig); err != nil {
		log.Err(err).Msg("Error when un-marshaling queries")
		return nil, nil, nil, err
	}

	return allSourcesConfig, allSinksConfig, allQueriesConfig, nil
}

func (p *DataPipelineConfig) ensureMapped(key string) *DataPipeline {
	if p.mappedDataPipelines == nil {
		p.mappedDataPipelines = make(map[string]*DataPipeline)
	}
	if dp, exists := p.mappedDataPipelines[key]; exists {
		return dp
	}
	log.Debug().Msgf("Mapped key(%s) does NOT exist, creating it", key)
	dp := NewDataPipeline(nil, nil, p.queryFor(key))
	dp.key = key
	p.mappedDataPipelines[key] = dp
	return dp
}

func (p *DataPipelineConfig) mapSource(source DataSource) {

	log.Trace().Msg("Mapping source")

	key, _ := source.Key()
	p.ensureMapped(key).SetSource(source)
}

func (p *DataPipelineConfig) mapSink(sink DataSink) {

	log.Trace().Msg("Mapping sink")

	key, _ := sink.Key()
	p.ensureMapped(key).SetSink(sink)
}

func (p *DataPipelineConfig) AddSource(src sources.SourceConfig) error {

	log.Trace().Msg("Creating a source")

	if p.srcIndexMap == nil {
		p.srcIndexMap = make(map[string][]int)
	}

	source, err := DataSourceFactory(src)
	if err != nil {
		log.Err(err).Msg("Error when creating Data Source Object")
		return err
	}
	key, _ := source.Key()
	p.srcIndexMap[key] = append(p.srcIndexMap[key], len(p.allSourceInterfaces))
	p.allSourceInterfaces = append(p.allSourceInterfaces, source)
	p.addKey(key)
	p.mapSource(source)
	return nil
}

func (p *DataPipelineConfig) AddSink(snk sinks.SinkConfig) error {

	if p.snkIndexMap == nil {
		p.snkIndexMap = make(map[string][]int)
	}

	sink, err := DataSinkFactory(snk)
	if err != nil {
		log.Err(err).Msg("Error when creating Data Sink Object")
		return err
	}
	key, _ := sink.Key()
	p.snkIndexMap[key] = append(p.snkIndexMap[key], len(p.allSinkInterfaces))
	p.allSinkInterfaces = append(p.allSinkInterfaces, sink)
	p.addKey(key)
	p.mapSink(sink)
	return nil
}

// AddQuery binds a catalog query to a pipeline key. Must run before the
// source/sink for that key are added, or the pipeline keeps its default.
func (p *DataPipelineConfig) AddQuery(qc QueryConfig) {
	if p.queriesByKey == nil {
		p.queriesByKey = make(map[string]string)
	}
	p.queriesByKey[qc.Key] = qc.Query
	if dp, exists := p.mappedDataPipelines[qc.Key]; exists {
		dp.SetQuery(qc.Query)
	}
}

func (p *DataPipelineConfig) queryFor(key string) string {
	return p.queriesByKey[key]
}

// GetMappedPipelines returns the pipelines keyed so far. Pipelines missing
// either end are returned too; the caller decides whether that is an error.
func (p *DataPipelineConfig) GetMappedPipelines() (map[string]*DataPipeline, bool) {
	exists := p.mappedDataPipelines != nil
	return p.mappedDataPipelines, exists
}

func (p *DataPipelineConfig) Close(key string) (bool, error) {

	if p.keys[key] {
		dp := p.mappedDataPipelines[key]
		if err := dp.Close(); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, fmt.Errorf("key does not exist")
}

func (p *DataPipelineConfig) Info() {

	fmt.Printf("Keys\n")
	for k := range p.keys {
		fmt.Printf("%v ", k)
	}

	fmt.Printf("\nMaps\n")

	for k, v := range p.srcIndexMap {
		fmt.Printf("%v %v\n", k, v)
	}
	for k, v := range p.snkIndexMap {
		fmt.Printf("%v %v\n", k, v)
	}

	fmt.Printf("Interfaces\n")
	for _, src := range p.allSourceInterfaces {
		fmt.Printf("%s", src.Info())
	}
	fmt.Println("")
	for _, snk := range p.allSinkInterfaces {
		fmt.Printf("%s", snk.Info())
	}

	fmt.Printf("\nMaps\n")
	for k, v := range p.mappedDataPipelines {
		fmt.Printf("%s| %v %v\n", k, v.Source, v.Sink)
	}
}

func DataSourceFactory(config sources.SourceConfig) (DataSource, error) {
	sourceType := config.ConnectionType
	log.Debug().Msgf("Creating and allocating object for source: %s", sourceType)
	switch sourceType {
	case "csv":
		x := &sources.CSVSource{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	case "kafka":
		x := &sources.KafkaSource{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	case "generator":
		x := &sources.GeneratorSource{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}
}

func DataSinkFactory(config sinks.SinkConfig) (DataSink, error) {
	sinkType := config.ConnectionType
	log.Debug().Msgf("Creating and allocating object for sink: %s", sinkType)
	switch sinkType {
	case "dump":
		x := &sinks.DumpSink{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	case "csv":
		x := &sinks.CSVSink{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	case "elasticsearch":
		x := &sinks.ElasticSink{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	case "kafka":
		x := &sinks.KafkaSink{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	case "badger":
		x := &sinks.BadgerSink{}
		if err := x.Init(config); err != nil {
			return nil, err
		}
		return x, nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", sinkType)
	}
}

func GetPipelineInstance() *DataPipelineConfig {
	once.Do(func() {
		pipelineInstance = &DataPipelineConfig{}
	})

	return pipelineInstance
}
