package worker

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"text2phenotype.com/postagger/logger"
	"text2phenotype.com/postagger/pipeline"
	"text2phenotype.com/postagger/rmq"
	"text2phenotype.com/postagger/s3client"
	"text2phenotype.com/postagger/tasks"
)

type Config struct {
	TaskMaxRetries int `envconfig:"MDL_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
}

// Worker tags the documents announced on the task queue.
type Worker struct {
	config    Config
	tasks     taskStore
	storage   documentStorage
	queue     taskQueue
	posLogger zerolog.Logger
	ppln      pipeline.Pipeline
}

func New(ppln pipeline.Pipeline) (*Worker, error) {
	posLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		posLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:    config,
		posLogger: posLogger,
		ppln:      ppln,
	}
	for _, client := range []struct {
		name    string
		refresh func() error
	}{
		{"RMQ", worker.refreshQueue},
		{"S3", worker.refreshStorage},
		{"Redis", worker.refreshTaskStore},
	} {
		if err := client.refresh(); err != nil {
			posLogger.Error().Err(err).Msgf("Could not create %s client", client.name)
			worker.Close()
			return nil, err
		}
	}
	return &worker, nil
}

// StartWorker returns when ctx is done or the queue connection cannot be restored.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	for {
		select {
		case <-ctx.Done():
			worker.posLogger.Info().Msg("Worker stopped")
			return ctx.Err()
		case delivery, ok := <-worker.queue.deliveries():
			if ok {
				go worker.processMessage(ctx, &delivery)
				continue
			}
			if err := worker.recoverQueue("Deliveries channel closed", nil); err != nil {
				return err
			}
		case rmqErr := <-worker.queue.respErrors():
			if rmqErr == nil {
				continue
			}
			if err := worker.recoverQueue("Response connection received error", rmqErr); err != nil {
				return err
			}
		case rmqErr := <-worker.queue.reqErrors():
			if rmqErr == nil {
				continue
			}
			if err := worker.recoverQueue("Request connection received error", rmqErr); err != nil {
				return err
			}
		}
	}
}

func (worker *Worker) recoverQueue(reason string, cause error) error {
	worker.posLogger.Err(cause).Msgf("%s, trying to refresh RMQ client", reason)
	if err := worker.refreshQueue(); err != nil {
		return fmt.Errorf("%s and refresh failed with: %w", reason, err)
	}
	return nil
}

func (worker *Worker) Close() {
	if worker.tasks != nil {
		worker.tasks.close()
	}
	if worker.storage != nil {
		worker.storage.close()
	}
	if worker.queue != nil {
		worker.queue.close()
	}
}

func (worker *Worker) refreshTaskStore() error {
	client, err := tasks.NewClient()
	if err != nil {
		return err
	}
	if worker.tasks != nil {
		worker.tasks.close()
	}
	worker.tasks = &taskClient{client}
	worker.posLogger.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) refreshQueue() error {
	client, err := rmq.NewClient()
	if err != nil {
		return err
	}
	if worker.queue != nil {
		worker.queue.close()
	}
	worker.queue = &queueClient{client}
	worker.posLogger.Info().Msg("Refreshed RMQ client")
	return nil
}

func (worker *Worker) refreshStorage() error {
	client, err := s3client.New()
	if err != nil {
		return err
	}
	if worker.storage != nil {
		worker.storage.close()
	}
	worker.storage = &storageClient{client}
	worker.posLogger.Info().Msg("Refreshed S3 client")
	return nil
}
