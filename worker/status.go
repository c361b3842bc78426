package worker

import (
	"fmt"
	"path"
	"time"

	"text2phenotype.com/postagger/tasks"
)

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

type transition func(info *tasks.TaskInfo)

func now() *string {
	formatted := time.Now().UTC().Format(RFC3339Micro)
	return &formatted
}

func started() transition {
	return func(info *tasks.TaskInfo) {
		info.Status = tasks.StatusStarted
		info.Attempts++
		info.StartedAt = now()
		info.CompletedAt = nil
	}
}

// finished marks a task that was never run as complete with the given status.
func finished(status tasks.Status, messages ...string) transition {
	return func(info *tasks.TaskInfo) {
		info.Status = status
		info.Attempts++
		info.StartedAt = now()
		info.CompletedAt = info.StartedAt
		info.ErrorMessages = append(info.ErrorMessages, messages...)
	}
}

func cancelled(messages ...string) transition {
	return finished(tasks.StatusCanceled, messages...)
}

func exceededRetries(attempts int, maxRetries int) transition {
	return finished(
		tasks.StatusCompletedFailure,
		fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d)", attempts+1, maxRetries),
	)
}

func failed(err error) transition {
	return func(info *tasks.TaskInfo) {
		info.Status = tasks.StatusFailed
		info.CompletedAt = now()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	}
}

func completed(resultsFileKey string) transition {
	return func(info *tasks.TaskInfo) {
		if !info.Status.Complete() {
			info.Status = tasks.StatusCompletedSuccess
		}
		info.CompletedAt = now()
		info.ResultsFileKey = resultsFileKey
	}
}

func resultsFileKey(task *Task) string {
	return path.Join(
		"processed",
		"documents",
		task.taggingTask.DocID,
		"chunks",
		task.redisKey,
		fmt.Sprintf("%s.pos_results.json", task.redisKey),
	)
}
