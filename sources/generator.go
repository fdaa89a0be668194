package sources

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/stream"
)

// GeneratorSource produces a synthetic packet stream: identical TCP headers
// with a logical time that advances by a fixed step per packet. It exists
// for demos and smoke runs where no capture is at hand.
type GeneratorSource struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string

	count int
	step  float64
}

func NewGeneratorSource(count int, step float64) *GeneratorSource {
	return &GeneratorSource{count: count, step: step}
}

func (g *GeneratorSource) Init(args SourceConfig) error {
	g.pipelineKey = args.Key
	g.pipelineName = args.Name
	g.pipelineConnectionType = args.ConnectionType

	g.count = 20
	if raw := args.Config["count"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Err(err).Msg("Bad count in config")
			return fmt.Errorf("bad count: %w", err)
		}
		g.count = n
	}
	g.step = 1.0
	if raw := args.Config["step"]; raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Err(err).Msg("Bad step in config")
			return fmt.Errorf("bad step: %w", err)
		}
		g.step = f
	}
	return nil
}

func (g *GeneratorSource) Connect(ctx context.Context) error { return nil }

func (g *GeneratorSource) Run(ctx context.Context, head stream.Operator) error {
	for i := 0; i < g.count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := head.Accept(g.packet(float64(i) * g.step)); err != nil {
			return err
		}
	}
	return head.Flush(stream.Record{})
}

func (g *GeneratorSource) packet(time float64) stream.Record {
	return stream.Record{
		"time":          stream.FloatValue(time),
		"eth.src":       stream.MACValue([6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}),
		"eth.dst":       stream.MACValue([6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}),
		"eth.ethertype": stream.IntValue(0x0800),
		"ipv4.hlen":     stream.IntValue(20),
		"ipv4.proto":    stream.IntValue(6),
		"ipv4.len":      stream.IntValue(60),
		"ipv4.src":      stream.MustIPv4("127.0.0.1"),
		"ipv4.dst":      stream.MustIPv4("127.0.0.1"),
		"l4.sport":      stream.IntValue(440),
		"l4.dport":      stream.IntValue(50000),
		"l4.flags":      stream.IntValue(10),
	}
}

func (g *GeneratorSource) Disconnect() error { return nil }

func (g *GeneratorSource) Key() (string, error) {
	if g.pipelineKey == "" {
		return "", fmt.Errorf("no pipeline key is set")
	}
	return g.pipelineKey, nil
}

func (g *GeneratorSource) Name() string { return g.pipelineName }

func (g *GeneratorSource) Info() string {
	return fmt.Sprintf("Key:%s|Name:%s|Type:%s", g.pipelineKey, g.pipelineName, g.pipelineConnectionType)
}
