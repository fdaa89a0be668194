package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/stream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes every emitted record as a JSON message, so downstream
// consumers (dashboards, responders) can react to detections. Produces are
// synchronous: the engine's depth-first contract means Accept must not
// return before the record is handed off.
type KafkaSink struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	bootstrapServers string
	topic            string

	kafkaProducerClient *kgo.Client
	ctx                 context.Context
}

func (k *KafkaSink) Init(args SinkConfig) error {
	k.pipelineKey = args.Key
	k.pipelineName = args.Name
	k.pipelineConnectionType = args.ConnectionType

	if args.Config["bootstrap_servers"] == "" || args.Config["topic"] == "" {
		log.Error().Msg("Error missing config values")
		return fmt.Errorf("error missing config values")
	}
	k.bootstrapServers = args.Config["bootstrap_servers"]
	k.topic = args.Config["topic"]
	return nil
}

func (k *KafkaSink) Connect(ctx context.Context) error {
	log.Trace().Msg("Connecting to kafka cluster as a sink...")
	opts := []kgo.Opt{
		kgo.SeedBrokers(k.bootstrapServers),
		kgo.DefaultProduceTopic(k.topic),
		kgo.AllowAutoTopicCreation(),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		log.Err(err).Msg("Error when creating a kafka producer!")
		return err
	}
	k.kafkaProducerClient = client
	k.ctx = ctx
	return nil
}

func (k *KafkaSink) Accept(r stream.Record) error {
	payload, err := json.Marshal(r.Native())
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	record := &kgo.Record{Value: payload}
	if err := k.kafkaProducerClient.ProduceSync(k.ctx, record).FirstErr(); err != nil {
		log.Err(err).Msg("Error when producing to kafka")
		return err
	}
	return nil
}

// Flush is a no-op; window boundaries are already encoded in the records'
// epoch-id field.
func (k *KafkaSink) Flush(stream.Record) error { return nil }

func (k *KafkaSink) Disconnect() error {
	log.Trace().Msg("Disconnecting kafka sink")
	k.kafkaProducerClient.Close()
	return nil
}

func (k *KafkaSink) Key() (string, error) {
	if k.pipelineKey == "" {
		return "", fmt.Errorf("error no pipeline key is set")
	}
	return k.pipelineKey, nil
}

func (k *KafkaSink) Name() string { return k.pipelineName }

func (k *KafkaSink) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", k.pipelineKey, k.pipelineName, k.pipelineConnectionType)
}
