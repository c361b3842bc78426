package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	docs map[string]string
}

func (store *memoryStore) GetDocument(_ context.Context, redisKey string, doc interface{}) error {
	b, ok := store.docs[redisKey]
	if !ok {
		return errors.New("not found")
	}
	return json.Unmarshal([]byte(b), doc)
}

func (store *memoryStore) UpdateDocument(ctx context.Context, redisKey string, doc interface{}, update func() error) error {
	if err := store.GetDocument(ctx, redisKey, doc); err != nil {
		return err
	}
	if err := update(); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	store.docs[redisKey] = string(b)
	return nil
}

func (store *memoryStore) Close() error { return nil }

func TestStatusComplete(t *testing.T) {
	for _, status := range []Status{StatusCompletedSuccess, StatusCompletedFailure, StatusCanceled} {
		assert.True(t, status.Complete(), status)
	}
	for _, status := range []Status{"", StatusSubmitted, StatusStarted, StatusFailed} {
		assert.False(t, status.Complete(), status)
	}
}

func TestClientTasks(t *testing.T) {
	chunks := &memoryStore{docs: map[string]string{
		"chunk-1": `{"document_id": "doc-1", "job_id": "job-1", "text_file_key": "docs/doc-1.txt",
			"task_statuses": {"pos_tagger": {"status": "submitted", "attempts": 1}}}`,
	}}
	jobs := &memoryStore{docs: map[string]string{
		"job-1-cached-properties": `{"user_canceled": true, "work_type": "annotate"}`,
	}}
	client := Client{chunks: chunks, jobs: jobs}
	ctx := context.Background()

	task, err := client.Task(ctx, "chunk-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", task.DocID)
	assert.Equal(t, "docs/doc-1.txt", task.TextFileKey)
	assert.Equal(t, StatusSubmitted, task.TaskStatuses.POS.Status)

	require.NoError(t, client.UpdateTaskInfo(ctx, "chunk-1", func(info *TaskInfo) {
		info.Status = StatusStarted
		info.Attempts++
	}))
	task, err = client.Task(ctx, "chunk-1")
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, task.TaskStatuses.POS.Status)
	assert.Equal(t, 2, task.TaskStatuses.POS.Attempts)
	assert.Equal(t, "job-1", task.JobID)

	job, err := client.Job(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, job.UserCanceled)

	_, err = client.Job(ctx, "job-2")
	assert.Error(t, err)
	_, err = client.Task(ctx, "chunk-2")
	assert.Error(t, err)
}
