package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/postagger/pipeline"
	"text2phenotype.com/postagger/tasks"
)

// recorder collects the names of the called mock methods in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

type mocksConfig struct {
	task          *tasks.TaggingTask
	job           tasks.Job
	failTask      bool
	failJob       bool
	failUpdateOn  tasks.Status
	failDownload  bool
	failUpload    bool
	closePipeline bool
	failPing      bool
	failAck       bool
}

type taskStoreMock struct {
	*recorder
	config *mocksConfig
	info   tasks.TaskInfo
}

func (mock *taskStoreMock) task(_ context.Context, redisKey string) (*tasks.TaggingTask, error) {
	mock.record("task")
	if mock.config.failTask {
		return nil, errors.New("failed to get tagging task")
	}
	if mock.config.task == nil {
		return &tasks.TaggingTask{DocID: "doc-1", JobID: "job-1", TextFileKey: "docs/doc-1.txt"}, nil
	}
	task := *mock.config.task
	mock.info = task.TaskStatuses.POS
	return &task, nil
}

func (mock *taskStoreMock) job(_ context.Context, jobID string) (*tasks.Job, error) {
	mock.record("job")
	if mock.config.failJob {
		return nil, errors.New("failed to get job")
	}
	job := mock.config.job
	return &job, nil
}

func (mock *taskStoreMock) update(_ context.Context, redisKey string, apply transition) error {
	info := mock.info
	apply(&info)
	mock.record("update " + string(info.Status))
	if mock.config.failUpdateOn == info.Status {
		return errors.New("failed to update tagging task")
	}
	mock.info = info
	return nil
}

func (mock *taskStoreMock) close() {}

type storageMock struct {
	*recorder
	config   *mocksConfig
	uploaded map[string]string
}

func (mock *storageMock) download(key string) ([]byte, error) {
	mock.record("download")
	if mock.config.failDownload {
		return nil, errors.New("mock: failed to load from s3")
	}
	return []byte("the dog runs"), nil
}

func (mock *storageMock) upload(key string, data string) error {
	mock.record("upload")
	if mock.config.failUpload {
		return errors.New("failed to upload results")
	}
	mock.uploaded[key] = data
	return nil
}

func (mock *storageMock) close() {}

type queueMock struct {
	*recorder
	config *mocksConfig
	pinged []Message
}

func (mock *queueMock) pingSequencer(task *Task) error {
	mock.record("ping")
	if mock.config.failPing {
		return errors.New("failed to ping sequencer")
	}
	mock.pinged = append(mock.pinged, task.message)
	return nil
}

func (mock *queueMock) ack(delivery *amqp.Delivery) error {
	mock.record("ack")
	if mock.config.failAck {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *queueMock) reject(delivery *amqp.Delivery, posLogger zerolog.Logger) {
	mock.record("reject")
}

func (mock *queueMock) deliveries() <-chan amqp.Delivery { return nil }

func (mock *queueMock) reqErrors() <-chan *amqp.Error { return nil }

func (mock *queueMock) respErrors() <-chan *amqp.Error { return nil }

func (mock *queueMock) close() {}

func pipelineMock(r *recorder, config *mocksConfig) pipeline.Pipeline {
	return func(request pipeline.Request) <-chan string {
		r.record("pipeline")
		ch := make(chan string, 1)
		if !config.closePipeline {
			ch <- `{"clinical": {"docId": "` + request.Tid + `"}}`
		}
		close(ch)
		return ch
	}
}
