package ingest

import (
	"context"
	"log"
	"time"

	"github.com/japaniel/reviewgen/pkg/markov"
	"github.com/japaniel/reviewgen/pkg/tokenize"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Trainer turns review lines into a frozen Markov corpus. Tokenization runs
// on a worker pool; pairs are applied to the builder strictly in line order,
// so the result is the same for any worker count.
type Trainer struct {
	Tokenizer tokenize.Tokenizer
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called every ProgressEvery applied lines and once at the end.
	OnProgress    func(current, total int)
	ProgressEvery int

	// Concurrency settings
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// TrainStats summarizes a training run.
type TrainStats struct {
	Lines int
	// Tokens is the number of tokens produced by the tokenizer.
	Tokens int
	// Accepted counts tokens that became a primary word.
	Accepted int
	// Words is the number of distinct words in the corpus, sentinel included.
	Words   int
	Elapsed time.Duration
}

// NewTrainer creates a new Trainer. A nil tokenizer means tokenize.Splitter.
func NewTrainer(tok tokenize.Tokenizer) *Trainer {
	if tok == nil {
		tok = tokenize.Splitter{}
	}
	return &Trainer{
		Tokenizer:     tok,
		Workers:       4,
		ProgressEvery: 1000,
	}
}

type tokenizedLine struct {
	Index  int
	Tokens []string
}

// Train tokenizes lines concurrently and builds the corpus. On cancellation or
// a submit failure no corpus is returned.
func (tr *Trainer) Train(ctx context.Context, lines []string) (*markov.Corpus, TrainStats, error) {
	start := time.Now()
	st := TrainStats{Lines: len(lines)}
	total := len(lines)

	tok := tr.Tokenizer
	if tok == nil {
		tok = tokenize.Splitter{}
	}
	workers := tr.Workers
	if workers <= 0 {
		workers = 1
	}

	var wp WorkerPoolInterface
	if tr.PoolFactory != nil {
		wp = tr.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	resultCh := make(chan tokenizedLine, workers*2)
	doneCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := markov.NewBuilder()
	wp.Start(ctx)

	// Consumer: reorder results and apply them one line at a time. The builder
	// is only touched here.
	go func() {
		buffer := make(map[int][]string)
		next := 0
		for next < total {
			select {
			case <-ctx.Done():
				doneCh <- ctx.Err()
				return
			case res := <-resultCh:
				buffer[res.Index] = res.Tokens
			}
			for {
				tokens, ok := buffer[next]
				if !ok {
					break
				}
				delete(buffer, next)
				st.Tokens += len(tokens)
				st.Accepted += b.AddLine(tokens)
				next++
				if tr.OnProgress != nil && tr.ProgressEvery > 0 && next%tr.ProgressEvery == 0 {
					tr.OnProgress(next, total)
				}
			}
		}
		doneCh <- nil
	}()

	var submitErr error
Loop:
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		idx := i
		line := lines[i]
		job := func(ctx context.Context) error {
			res := tokenizedLine{Index: idx, Tokens: tok.Tokenize(line)}
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if err == ctx.Err() {
				break Loop
			}
			submitErr = err
			cancel()
			break Loop
		}
	}

	wp.Close()
	consumerErr := <-doneCh
	if submitErr != nil {
		return nil, st, submitErr
	}
	if consumerErr != nil {
		return nil, st, consumerErr
	}

	corpus := b.Corpus()
	st.Words = corpus.Len()
	st.Elapsed = time.Since(start)
	if tr.OnProgress != nil {
		tr.OnProgress(total, total)
	}
	if tr.Logger != nil {
		tr.Logger.Printf("Trained on %d lines: %d tokens, %d words in %s", st.Lines, st.Tokens, st.Words, st.Elapsed.Round(time.Millisecond))
	}
	return corpus, st, nil
}
