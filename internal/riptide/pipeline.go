package riptide

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"riptide/internal/stream"
	"riptide/internal/syntax"
)

// runPipeline runs every call of p concurrently, each on its own forked
// fiber, with the output of stage i connected to the input of stage i+1.
// The first stage reads this fiber's stdin and the last writes its stdout.
//
// The pipeline's value is the value of the last stage. If any stage fails,
// the failure of the earliest stage is raised after all stages finish. A
// non-final stage that fails only because its reader went away is not
// counted as a failure unless pipefail is configured.
func (f *Fiber) runPipeline(p *syntax.Pipeline) (Value, error) {
	cfg := f.rt.cfg.Pipeline
	n := len(p.Calls)

	stages := make([]*Fiber, n)
	inputs := make([]*stream.Reader, n)
	outputs := make([]*stream.Writer, n)

	in := f.stdio.In
	for i := range n {
		stdio := stream.Stdio{In: in, Out: f.stdio.Out, Err: f.stdio.Err}
		if i < n-1 {
			r, w := stream.Pipe(cfg.BufferSize)
			stdio.Out = w
			outputs[i] = w
			inputs[i+1] = r
			in = r
		}
		stages[i] = f.fork(stdio)
	}

	log := f.logger().With(slog.Int("stages", n))
	log.Debug("pipeline start", slog.Int("buffer-size", cfg.BufferSize))

	results := make([]Value, n)
	errs := make([]error, n)

	var g errgroup.Group
	for i, call := range p.Calls {
		g.Go(func() error {
			defer func() {
				if outputs[i] != nil {
					outputs[i].Close()
				}
				if inputs[i] != nil {
					inputs[i].Close()
				}
			}()

			v, err := stages[i].evalCall(call)
			results[i], errs[i] = v, err
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug("pipeline stage failed", slog.Any("error", err))
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		if i < n-1 && !cfg.Pipefail && stream.IsBrokenPipe(err) {
			log.Debug("ignoring broken pipe", slog.Int("stage", i))
			continue
		}
		return Nil, AsException(err)
	}
	return orNil(results[n-1]), nil
}
