package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/postagger/pipeline"
	"text2phenotype.com/postagger/tasks"
	"text2phenotype.com/postagger/utils"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery    *amqp.Delivery
	taggingTask *tasks.TaggingTask
	message     Message
	redisKey    string
	posLogger   zerolog.Logger
}

// processMessage acks a delivery once the task reached a final state for this
// attempt and the sequencer was told about it. Everything else rejects it.
func (worker *Worker) processMessage(ctx context.Context, delivery *amqp.Delivery) {
	rejectLogger := worker.posLogger.With().Str("message_id", delivery.MessageId).Logger()

	task, err := worker.createTask(ctx, delivery)
	if err != nil {
		rejectLogger.Err(err).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.queue.reject(delivery, rejectLogger)
		return
	}
	if err = worker.processTask(ctx, task); err != nil {
		worker.queue.reject(delivery, rejectLogger)
		return
	}
	if err = worker.queue.pingSequencer(task); err != nil {
		task.posLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.queue.reject(delivery, rejectLogger)
		return
	}
	if err = worker.queue.ack(delivery); err != nil {
		task.posLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.posLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	taggingTask, err := worker.tasks.task(ctx, message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query tagging task for message: %w", err)
	}
	return &Task{
		delivery:    delivery,
		taggingTask: taggingTask,
		redisKey:    message.RedisKey,
		message:     message,
		posLogger:   worker.posLogger.With().Str("tid", message.RedisKey).Logger(),
	}, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.posLogger.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.tasks.update(ctx, task.redisKey, started()); err != nil {
		task.posLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update task info: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.posLogger.Err(err).Msg("Got error while running pipeline")
		// A recorded failure is a final state for this attempt.
		return worker.tasks.update(ctx, task.redisKey, failed(err))
	}
	task.posLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.tasks.update(ctx, task.redisKey, completed(resultsFileKey(task))); err != nil {
		task.posLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.posLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.taggingTask.TaskStatuses.POS.Attempts+1)

	data, err := worker.storage.download(task.taggingTask.TextFileKey)
	if err != nil {
		return fmt.Errorf("failed to fetch data from s3: %w", err)
	}
	result, ok := <-worker.ppln(pipeline.Request{
		Tid:  task.redisKey,
		Text: string(data),
	})
	if !ok {
		return errors.New("pipeline channel was closed before returning anything")
	}
	task.posLogger.Info().Msg("Finished pipeline, saving results to s3")
	return worker.storage.upload(resultsFileKey(task), result)
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	info := task.taggingTask.TaskStatuses.POS

	if info.Status.Complete() {
		task.posLogger.Info().Msg("Task is already done (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	job, err := worker.tasks.job(ctx, task.taggingTask.JobID)
	if err != nil {
		return false, err
	}
	if job.UserCanceled {
		task.posLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		return false, worker.tasks.update(ctx, task.redisKey, cancelled())
	}
	if info.Attempts >= worker.config.TaskMaxRetries {
		task.posLogger.Info().Msg("Tagging task has exceeded retries. Sending back to Sequencer.")
		return false, worker.tasks.update(ctx, task.redisKey, exceededRetries(info.Attempts, worker.config.TaskMaxRetries))
	}
	return true, nil
}
