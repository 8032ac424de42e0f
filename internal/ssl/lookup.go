package ssl

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FetchFunc answers one question. It fills the certificate fields of the
// result it returns; Run sets the Question and Error fields.
type FetchFunc func(ctx context.Context, q Question) (Result, error)

// RunOptions controls how a batch is executed
type RunOptions struct {
	// Recoverable decides which per-question errors become empty results
	Recoverable Classifier
	// OnResult, if set, is called after each question completes
	OnResult func(q Question, res Result, err error)
	// Concurrency is the number of questions fetched at once; <= 1 is sequential
	Concurrency int
}

// Validate rejects questions that no driver can answer
func Validate(questions []Question) error {
	for i, q := range questions {
		if strings.TrimSpace(q.Host) == "" {
			return fmt.Errorf("%w: question [%d]: cannot connect to empty host", ErrInvalidArgument, i)
		}
	}
	return nil
}

// Normalize fills in the default port on every question
func Normalize(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Host = strings.TrimSpace(q.Host)
		q.Port = strings.TrimSpace(q.Port)
		if q.Port == "" {
			q.Port = DefaultPort
		}
		out[i] = q
	}
	return out
}

// Run answers every question with fetch and returns one result per question
// in input order. A recoverable failure for one question never prevents the
// others from being answered.
func Run(ctx context.Context, questions []Question, fetch FetchFunc, opts RunOptions) ([]Result, error) {
	questions = Normalize(questions)
	if err := Validate(questions); err != nil {
		return nil, err
	}

	results := make([]Result, len(questions))
	errs := make([]error, len(questions))

	if opts.Concurrency <= 1 {
		for i, q := range questions {
			results[i], errs[i] = runOne(ctx, q, fetch, opts)
			if errs[i] != nil {
				return nil, errs[i]
			}
		}
		return results, nil
	}

	var wg sync.WaitGroup

	// Use a semaphore channel for concurrency control
	sem := make(chan struct{}, opts.Concurrency)

	for i, q := range questions {
		wg.Add(1)
		go func(idx int, q Question) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx], errs[idx] = runOne(ctx, q, fetch, opts)
		}(i, q)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func runOne(ctx context.Context, q Question, fetch FetchFunc, opts RunOptions) (Result, error) {
	res, err := fetch(ctx, q)
	res.Question = q

	if opts.OnResult != nil {
		opts.OnResult(q, res, err)
	}

	if err == nil {
		return res, nil
	}

	if opts.Recoverable != nil && opts.Recoverable(err) {
		return Result{Question: q, Error: err.Error()}, nil
	}
	return Result{Question: q}, fmt.Errorf("%s: %w", q.Address(), err)
}
