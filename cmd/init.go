package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

func initFlags(ko *koanf.Koanf) {
	f := flag.NewFlagSet("config", flag.ContinueOnError)
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}

	f.StringSlice("config", []string{".config/config.json"}, "path to one or more config files (will be merged in order)")
	f.String("port", "8080", "port to host the web server on")
	f.Bool("dev", false, "run with human-readable trace logging")
	f.Bool("version", false, "show current version of the build")
	f.Bool("override", false, "override the command line arguments with the specified config file")

	if err := f.Parse(os.Args[1:]); err != nil {
		log.Fatal().Msgf("error loading flags: %v", err)
	}

	override, _ := f.GetBool("override")
	if !override {
		configs, _ := f.GetStringSlice("config")
		for _, path := range configs {
			log.Debug().Msgf("Reading config from %s", path)
			parser, err := parserFor(path)
			if err != nil {
				log.Fatal().Err(err).Str("path", path).Send()
			}
			if err := ko.Load(file.Provider(path), parser); err != nil {
				log.Fatal().Msgf("error reading config: %v", err)
			}
		}
	}

	if err := ko.Load(posflag.Provider(f, ".", ko), nil); err != nil {
		log.Fatal().Msgf("error reading flag config: %v", err)
	}
}

func initConfig(ko *koanf.Koanf) error {
	log.Info().Msg("Loading configs")
	for _, path := range ko.Strings("config") {
		log.Debug().Msgf("Reading config from %s", path)
		parser, err := parserFor(path)
		if err != nil {
			return err
		}
		if err := ko.Load(file.Provider(path), parser); err != nil {
			return err
		}
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch path[strings.LastIndex(path, ".")+1:] {
	case "yaml", "yml":
		return yaml.Parser(), nil
	case "json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported file extension")
	}
}
