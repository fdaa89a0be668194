package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/stream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSource consumes JSON-encoded flow records from a topic and pushes
// them into the pipeline head synchronously, one at a time — the engine is
// depth-first push, so Accept for one record completes before the next is
// decoded. On shutdown the head gets one forced Flush so the open window
// drains.
type KafkaSource struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	bootstrapServers string
	consumerGroup    string
	topic            string

	kafkaConsumerClient *kgo.Client
}

func (k *KafkaSource) Init(args SourceConfig) error {
	k.pipelineKey = args.Key
	k.pipelineName = args.Name
	k.pipelineConnectionType = args.ConnectionType

	if args.Config["bootstrap_servers"] == "" || args.Config["group"] == "" || args.Config["topic"] == "" {
		log.Error().Msg("Error missing config values")
		return fmt.Errorf("error missing config values")
	}
	log.Debug().
		Str("bootstrap_servers", args.Config["bootstrap_servers"]).
		Str("topic", args.Config["topic"]).
		Str("group", args.Config["group"]).
		Send()

	k.bootstrapServers = args.Config["bootstrap_servers"]
	k.consumerGroup = args.Config["group"]
	k.topic = args.Config["topic"]
	return nil
}

func (k *KafkaSource) Connect(ctx context.Context) error {
	log.Trace().Msg("Connecting to kafka cluster as a source...")
	opts := []kgo.Opt{
		kgo.SeedBrokers(k.bootstrapServers),
		kgo.ConsumerGroup(k.consumerGroup),
		kgo.ConsumeTopics(k.topic),
		kgo.AutoCommitMarks(),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		log.Err(err).Msg("Error when creating a kafka consumer!")
		return err
	}
	k.kafkaConsumerClient = client
	return nil
}

func (k *KafkaSource) Run(ctx context.Context, head stream.Operator) error {
	var seen int

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, draining the open window")
			return head.Flush(stream.Record{})
		default:
		}

		fetches := k.kafkaConsumerClient.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return head.Flush(stream.Record{})
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				if errors.Is(fe.Err, context.Canceled) {
					log.Info().Msg("Context cancelled, draining the open window")
					return head.Flush(stream.Record{})
				}
				log.Err(fe.Err).Msgf("fetch err topic %s partition %d", fe.Topic, fe.Partition)
			}
		}
		if fetches.Empty() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		var pushErr error
		fetches.EachRecord(func(record *kgo.Record) {
			if pushErr != nil {
				return
			}
			seen++

			var doc map[string]any
			if err := json.Unmarshal(record.Value, &doc); err != nil {
				pushErr = fmt.Errorf("record %d: %w", seen, err)
				return
			}
			rec, err := RecordFromJSON(doc)
			if err != nil {
				pushErr = fmt.Errorf("record %d: %w", seen, err)
				return
			}
			pushErr = head.Accept(rec)
		})
		if pushErr != nil {
			// A typed error from the core halts this pipeline instance.
			log.Err(pushErr).Msg("Pipeline rejected a record, stopping")
			return pushErr
		}
	}
}

func (k *KafkaSource) Disconnect() error {
	log.Trace().Msg("Disconnecting kafka source")
	k.kafkaConsumerClient.Close()
	return nil
}

func (k *KafkaSource) Key() (string, error) {
	if k.pipelineKey == "" {
		return "", fmt.Errorf("error no pipeline key is set")
	}
	return k.pipelineKey, nil
}

func (k *KafkaSource) Name() string { return k.pipelineName }

func (k *KafkaSource) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", k.pipelineKey, k.pipelineName, k.pipelineConnectionType)
}
