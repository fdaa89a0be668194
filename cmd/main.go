package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/sift/internal/logger"
	"github.com/tarungka/sift/pipeline"
	"github.com/tarungka/sift/server"
)

var (
	buildString = "unknown"
	ko          = koanf.New(".")
)

func main() {

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	initFlags(ko)

	if ko.Bool("version") {
		fmt.Println(buildString)
		os.Exit(0)
	}

	logger.SetDevelopment(ko.Bool("dev"))
	log.Logger = logger.GetLogger("sift")
	log.Info().Str("build", buildString).Msg("Starting the application")

	// This way the command line arguments are overridden by the config file
	if ko.Bool("override") {
		if initError := initConfig(ko); initError != nil {
			log.Err(initError).Msg("Error when initializing the config!")
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	done := make(chan struct{})
	go func() {
		<-interrupt
		log.Info().Msg("Received interrupt signal; closing pipelines")
		close(done)
	}()

	// Run the web server
	go func(ko *koanf.Koanf) {
		log.Info().Msg("Starting the web server...")
		server.Init(ko)
		server.Run(ko)
	}(ko)

	pipelineConfig := pipeline.GetPipelineInstance()

	allSourcesConfig, allSinksConfig, allQueriesConfig, err := pipelineConfig.ParseConfig(ko)
	if err != nil {
		log.Fatal().Err(err).Msg("Error when reading config")
	}

	for _, queryConfig := range allQueriesConfig {
		pipelineConfig.AddQuery(queryConfig)
	}
	for _, sourceConfig := range allSourcesConfig {
		if err := pipelineConfig.AddSource(sourceConfig); err != nil {
			log.Fatal().Err(err).Msg("Error when adding source")
		}
	}
	for _, sinkConfig := range allSinksConfig {
		if err := pipelineConfig.AddSink(sinkConfig); err != nil {
			log.Fatal().Err(err).Msg("Error when adding sink")
		}
	}

	mappedDataPipelines, exists := pipelineConfig.GetMappedPipelines()
	if !exists {
		log.Warn().Msg("No data pipelines configured")
	}

	var wg sync.WaitGroup
	for key, dp := range mappedDataPipelines {
		if dp.Source == nil || dp.Sink == nil {
			log.Fatal().Str("key", key).Msg("Pipeline is missing a source or a sink")
		}
		pipelineString, err := dp.Show()
		if err != nil {
			log.Err(err).Send()
		}
		log.Info().Msgf("Creating and running pipeline: %s", pipelineString)

		wg.Add(1)
		go func(dp *pipeline.DataPipeline) {
			if err := dp.Run(done, &wg); err != nil {
				log.Err(err).Msg("Pipeline halted")
			}
		}(dp)
	}

	wg.Wait()
	log.Info().Msg("All pipelines drained; shutting down")
}
