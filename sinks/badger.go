package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/internal/utils"
	"github.com/tarungka/sift/stream"
)

// BadgerSink appends emitted records to a local embedded store, keyed by a
// monotonically increasing sequence number. It is an archive of what the
// queries produced, not engine state: the core itself stays free of
// persistence.
type BadgerSink struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	dbPath string

	db  *badger.DB
	seq uint64
	mu  sync.Mutex
}

func (b *BadgerSink) Init(args SinkConfig) error {
	b.pipelineKey = args.Key
	b.pipelineName = args.Name
	b.pipelineConnectionType = args.ConnectionType
	b.dbPath = args.Config["db_path"]

	if b.dbPath == "" {
		log.Error().Msg("Missing db_path in config")
		return fmt.Errorf("missing db_path")
	}
	return nil
}

func (b *BadgerSink) Connect(ctx context.Context) error {
	db, err := badger.Open(badger.DefaultOptions(b.dbPath))
	if err != nil {
		log.Err(err).Str("db_path", b.dbPath).Msg("Failed to open badger store")
		return err
	}
	b.db = db
	log.Debug().Msgf("opened a file-based database at %s", b.dbPath)
	return nil
}

// connectInMemory backs the tests; same store, no files on disk.
func (b *BadgerSink) connectInMemory() error {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		return err
	}
	b.db = db
	return nil
}

func (b *BadgerSink) Accept(r stream.Record) error {
	payload, err := json.Marshal(r.Native())
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	b.mu.Lock()
	key := utils.ConvertUint64ToBytes(b.seq)
	b.seq++
	b.mu.Unlock()

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payload)
	})
	if err != nil {
		log.Err(err).Msg("Failed to write record to badger store")
		return err
	}
	return nil
}

// Flush is a no-op: the archive stores records, not window markers.
func (b *BadgerSink) Flush(stream.Record) error { return nil }

func (b *BadgerSink) Disconnect() error {
	log.Trace().Msg("Closing badger sink")
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *BadgerSink) Key() (string, error) {
	if b.pipelineKey == "" {
		return "", fmt.Errorf("no pipeline key is set")
	}
	return b.pipelineKey, nil
}

func (b *BadgerSink) Name() string { return b.pipelineName }

func (b *BadgerSink) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", b.pipelineKey, b.pipelineName, b.pipelineConnectionType)
}
