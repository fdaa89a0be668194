package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/stream"
)

// ElasticSink indexes every emitted record as a JSON document, the usual
// tail for alert-producing queries so analysts can search and graph the
// detections.
type ElasticSink struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	elasticCloudId string
	elasticUrl     string
	elasticApiKey  string
	elasticIndex   string

	client *elasticsearch.Client
	ctx    context.Context
}

func (e *ElasticSink) Init(args SinkConfig) error {
	e.pipelineKey = args.Key
	e.pipelineName = args.Name
	e.pipelineConnectionType = args.ConnectionType
	e.elasticCloudId = args.Config["cloud_id"]
	e.elasticUrl = args.Config["url"]
	e.elasticApiKey = args.Config["api_key"]
	e.elasticIndex = args.Config["index_name"]

	if e.elasticIndex == "" {
		log.Error().Msg("Missing index_name in config")
		return fmt.Errorf("missing index_name")
	}
	if e.elasticUrl == "" && e.elasticCloudId == "" {
		log.Error().Msg("Need one of url or cloud_id in config")
		return fmt.Errorf("missing elasticsearch address")
	}
	return nil
}

func (e *ElasticSink) Connect(ctx context.Context) error {
	log.Trace().Msg("Connecting to elasticsearch...")

	cfg := elasticsearch.Config{
		CloudID: e.elasticCloudId,
		APIKey:  e.elasticApiKey,
	}
	if e.elasticUrl != "" {
		cfg.Addresses = []string{e.elasticUrl}
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Err(err).Msg("Error when creating the elasticsearch client")
		return err
	}
	e.client = client
	e.ctx = ctx
	return nil
}

func (e *ElasticSink) Accept(r stream.Record) error {
	body, err := json.Marshal(r.Native())
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	res, err := e.client.Index(
		e.elasticIndex,
		bytes.NewReader(body),
		e.client.Index.WithContext(e.ctx),
	)
	if err != nil {
		log.Err(err).Msg("Error when indexing document")
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Error().Str("status", res.Status()).Msg("Elasticsearch rejected the document")
		return fmt.Errorf("elasticsearch index error: %s", res.Status())
	}
	return nil
}

// Flush is a no-op: documents are indexed one by one as they arrive.
func (e *ElasticSink) Flush(stream.Record) error { return nil }

func (e *ElasticSink) Disconnect() error {
	log.Trace().Msg("Closing elasticsearch sink")
	return nil
}

func (e *ElasticSink) Key() (string, error) {
	if e.pipelineKey == "" {
		return "", fmt.Errorf("no pipeline key is set")
	}
	return e.pipelineKey, nil
}

func (e *ElasticSink) Name() string { return e.pipelineName }

func (e *ElasticSink) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", e.pipelineKey, e.pipelineName, e.pipelineConnectionType)
}
