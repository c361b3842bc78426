package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"text2phenotype.com/postagger/api"
	"text2phenotype.com/postagger/logger"
	"text2phenotype.com/postagger/pipeline"
	"text2phenotype.com/postagger/pos"
	"text2phenotype.com/postagger/resources"
	"text2phenotype.com/postagger/types"
	"text2phenotype.com/postagger/worker"
)

type Config struct {
	ConfigPath    string `envconfig:"POSTAGGER_CONFIG_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"POSTAGGER_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"POSTAGGER_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"POSTAGGER_WORKER_ACTIVE" default:"true"`
}

const (
	pipelineStartMaxRetries = 5
	retryDelay              = 5 * time.Second
)

type service struct {
	configs  []types.Configuration
	taggers  map[string]*pos.Tagger
	pipeline pipeline.Pipeline
}

func main() {
	logger.SetupLogging()
	posLogger := logger.NewLogger("Main")
	checkConfig := flag.Bool("check-config", false, "load every tagger configuration and exit")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		posLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}

	if *checkConfig {
		if _, err := loadService(config, posLogger); err != nil {
			posLogger.Fatal().Caller().Err(err).Msg("Tagger configurations are not valid")
		}
		posLogger.Info().Msg("Tagger configurations are valid. Exit...")
		return
	}

	var svc *service
	for retry := 0; svc == nil; retry++ {
		var err error
		if svc, err = loadService(config, posLogger); err == nil {
			break
		}
		if retry+1 >= pipelineStartMaxRetries {
			posLogger.Fatal().Caller().Err(err).Msgf("Could not start pipeline after %d retries, exiting", pipelineStartMaxRetries)
		}
		posLogger.Err(err).Msgf("Failed to start pipeline. Retrying in %v", retryDelay)
		time.Sleep(retryDelay)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.RestAPIActive {
		go serveAPI(config, svc, posLogger)
	}

	if !config.WorkerActive {
		<-ctx.Done()
		return
	}

	posLogger.Info().Msg("Start POS tagger worker")
	for ctx.Err() == nil {
		rmqWorker, err := worker.New(svc.pipeline)
		if err != nil {
			posLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
		}
		if err = rmqWorker.StartWorker(ctx); err != nil && ctx.Err() == nil {
			posLogger.Err(err).Msgf("Worker returned with error. Launching new in %v", retryDelay)
			time.Sleep(retryDelay)
		}
	}
}

func loadService(config Config, posLogger zerolog.Logger) (*service, error) {
	configs, err := types.LoadConfigurations(config.ConfigPath)
	if err != nil {
		return nil, err
	}
	posLogger.Info().Msgf("Loaded %d configurations", len(configs))

	taggers, err := resources.LoadTaggers(configs, resources.NewCache(resources.NewFetcherWithS3()))
	if err != nil {
		return nil, err
	}
	ppln, err := pipeline.New(configs, taggers)
	if err != nil {
		return nil, err
	}
	posLogger.Info().Msg("Pipeline loaded")
	return &service{configs: configs, taggers: taggers, pipeline: ppln}, nil
}

func serveAPI(config Config, svc *service, posLogger zerolog.Logger) {
	apiRequest := &api.Request{
		Pipeline:       svc.pipeline,
		Configurations: svc.configs,
		Taggers:        svc.taggers,
	}
	host := fmt.Sprintf(":%s", config.RestAPIPort)
	posLogger.Info().Msgf("REST API on %s", host)
	err := http.ListenAndServe(host, apiRequest.Handler())
	posLogger.Fatal().Caller().Err(err).Msg("REST API stopped with error")
}
