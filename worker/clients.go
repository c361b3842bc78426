package worker

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/postagger/rmq"
	"text2phenotype.com/postagger/s3client"
	"text2phenotype.com/postagger/tasks"
)

type taskStore interface {
	task(ctx context.Context, redisKey string) (*tasks.TaggingTask, error)
	job(ctx context.Context, jobID string) (*tasks.Job, error)
	update(ctx context.Context, redisKey string, apply transition) error
	close()
}

type documentStorage interface {
	download(key string) ([]byte, error)
	upload(key string, data string) error
	close()
}

type taskQueue interface {
	pingSequencer(task *Task) error
	ack(delivery *amqp.Delivery) error
	reject(delivery *amqp.Delivery, posLogger zerolog.Logger)
	deliveries() <-chan amqp.Delivery
	reqErrors() <-chan *amqp.Error
	respErrors() <-chan *amqp.Error
	close()
}

type taskClient struct {
	client *tasks.Client
}

func (c *taskClient) task(ctx context.Context, redisKey string) (*tasks.TaggingTask, error) {
	return c.client.Task(ctx, redisKey)
}

func (c *taskClient) job(ctx context.Context, jobID string) (*tasks.Job, error) {
	return c.client.Job(ctx, jobID)
}

func (c *taskClient) update(ctx context.Context, redisKey string, apply transition) error {
	return c.client.UpdateTaskInfo(ctx, redisKey, apply)
}

func (c *taskClient) close() {
	c.client.Close()
}

type storageClient struct {
	client *s3client.Client
}

func (c *storageClient) download(key string) ([]byte, error) {
	return c.client.Download(key)
}

func (c *storageClient) upload(key string, data string) error {
	_, err := c.client.Upload(data, key)
	return err
}

func (c *storageClient) close() {
	c.client.Close()
}

type queueClient struct {
	client *rmq.Client
}

func (c *queueClient) deliveries() <-chan amqp.Delivery {
	return c.client.Deliveries
}

func (c *queueClient) reqErrors() <-chan *amqp.Error {
	return c.client.ReqChanErrors
}

func (c *queueClient) respErrors() <-chan *amqp.Error {
	return c.client.RespChanErrors
}

func (c *queueClient) pingSequencer(task *Task) error {
	message := task.message
	message.Sender = tasks.WorkerName
	b, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.client.SendMessageToSequencer(amqp.Publishing{
		ContentType: task.delivery.ContentType,
		Body:        b,
	})
}

func (c *queueClient) ack(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// reject requeues a delivery once, then drops it.
func (c *queueClient) reject(delivery *amqp.Delivery, posLogger zerolog.Logger) {
	requeue := !delivery.Redelivered
	if requeue {
		posLogger.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	} else {
		posLogger.Info().Msg("Rejecting delivery as it already has been redelivered")
	}
	if err := delivery.Reject(requeue); err != nil {
		posLogger.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}

func (c *queueClient) close() {
	c.client.Close()
}
