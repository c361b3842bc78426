package tasks

import (
	"context"
	"fmt"

	"text2phenotype.com/postagger/redis"
)

const (
	JobsDB   redis.DB = 1
	ChunksDB redis.DB = 2
)

// WorkerName is the key of the tagger in the task statuses and failure lists.
const WorkerName = "pos_tagger"

type Status string

const (
	StatusSubmitted        Status = "submitted"
	StatusStarted          Status = "started"
	StatusFailed           Status = "failed"
	StatusCompletedSuccess Status = "completed - success"
	StatusCompletedFailure Status = "completed - failure"
	StatusCanceled         Status = "canceled"
)

func (s Status) Complete() bool {
	switch s {
	case StatusCompletedSuccess, StatusCompletedFailure, StatusCanceled:
		return true
	}
	return false
}

// TaggingTask is one text chunk of a document waiting for tags.
type TaggingTask struct {
	DocID        string       `json:"document_id"`
	JobID        string       `json:"job_id"`
	TextFileKey  string       `json:"text_file_key"`
	TaskStatuses TaskStatuses `json:"task_statuses"`
}

type TaskStatuses struct {
	POS TaskInfo `json:"pos_tagger"`
}

type TaskInfo struct {
	ResultsFileKey string   `json:"results_file_key"`
	StartedAt      *string  `json:"started_at"`
	CompletedAt    *string  `json:"completed_at"`
	Attempts       int      `json:"attempts"`
	Status         Status   `json:"status"`
	ErrorMessages  []string `json:"error_messages"`
}

type Job struct {
	UserCanceled bool `json:"user_canceled"`
}

type store interface {
	GetDocument(ctx context.Context, redisKey string, doc interface{}) error
	UpdateDocument(ctx context.Context, redisKey string, doc interface{}, update func() error) error
	Close() error
}

type Client struct {
	chunks store
	jobs   store
}

func NewClient() (*Client, error) {
	chunks, err := redis.NewClient(ChunksDB)
	if err != nil {
		return nil, err
	}
	jobs, err := redis.NewClient(JobsDB)
	if err != nil {
		_ = chunks.Close()
		return nil, err
	}
	return &Client{chunks: chunks, jobs: jobs}, nil
}

func (client *Client) Task(ctx context.Context, redisKey string) (*TaggingTask, error) {
	var task TaggingTask
	if err := client.chunks.GetDocument(ctx, redisKey, &task); err != nil {
		return nil, fmt.Errorf("tagging task %s: %w", redisKey, err)
	}
	return &task, nil
}

// UpdateTaskInfo changes the tagger status of a task under the task lock.
func (client *Client) UpdateTaskInfo(ctx context.Context, redisKey string, update func(info *TaskInfo)) error {
	var task TaggingTask
	return client.chunks.UpdateDocument(ctx, redisKey, &task, func() error {
		update(&task.TaskStatuses.POS)
		return nil
	})
}

// Job reads the cached job properties.
func (client *Client) Job(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := client.jobs.GetDocument(ctx, cachedPropertiesKey(jobID), &job); err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	return &job, nil
}

func (client *Client) Close() {
	_ = client.chunks.Close()
	_ = client.jobs.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
