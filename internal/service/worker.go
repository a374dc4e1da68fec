package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vanshika/peoplegraph/internal/metrics"
)

// TaskError accumulates multiple errors produced by a batch run.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d tasks failed:", len(e.Errors))
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Recommender is the part of RecommendationService a batch run needs.
type Recommender interface {
	Recommend(ctx context.Context, params RecommendParams) (Recommendations, error)
}

// BatchRecommender computes recommendations for many users with a worker pool.
type BatchRecommender struct {
	service Recommender
	workers int
}

// NewBatchRecommender creates a BatchRecommender with the provided concurrency.
func NewBatchRecommender(service Recommender, workers int) *BatchRecommender {
	if workers <= 0 {
		workers = 4
	}
	return &BatchRecommender{
		service: service,
		workers: workers,
	}
}

// Run recommends for every user id. Results keep the order of userIDs;
// entries for failed users are left zero and their errors are collected in a
// *TaskError. Cancellation stops the run and returns the context error.
func (b *BatchRecommender) Run(ctx context.Context, userIDs []string, k, explanationCap int) ([]Recommendations, error) {
	results := make([]Recommendations, len(userIDs))
	err := b.run(ctx, len(userIDs), func(idx int) error {
		res, err := b.service.Recommend(ctx, RecommendParams{
			UserID:         userIDs[idx],
			K:              k,
			ExplanationCap: explanationCap,
		})
		if err != nil {
			metrics.BatchTasks.WithLabelValues("failure").Inc()
			return fmt.Errorf("user %s: %w", userIDs[idx], err)
		}
		metrics.BatchTasks.WithLabelValues("success").Inc()
		results[idx] = res
		return nil
	})
	return results, err
}

func (b *BatchRecommender) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				errCh <- err
			}
		}
	}

	for i := 0; i < min(b.workers, total); i++ {
		wg.Add(1)
		go worker()
	}

	cancelled := false
Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			cancelled = true
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if cancelled {
		return ctx.Err()
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
