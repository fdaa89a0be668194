// A minimal programmatic pipeline: synthetic packets through the packet
// counter into stdout. Useful for eyeballing window boundaries without any
// configuration.
package main

import (
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/pipeline"
	"github.com/tarungka/sift/sinks"
	"github.com/tarungka/sift/sources"
)

func main() {
	source := sources.NewGeneratorSource(40, 0.25)
	sink := sinks.NewDumpSink(os.Stdout, true)

	dp := pipeline.NewDataPipeline(source, sink, "count_pkts")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	if err := dp.Run(done, &wg); err != nil {
		log.Fatal().Err(err).Msg("Pipeline failed")
	}
	wg.Wait()
	close(done)
}
