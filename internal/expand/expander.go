package expand

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"vprintf/internal/config"
	"vprintf/internal/diag"
	"vprintf/internal/layout"
	"vprintf/internal/pipeline"
	"vprintf/internal/source"
	"vprintf/internal/trace"
)

// Options control a Run. The zero value expands in memory without a cache;
// MaxDiagnostics <= 0 means 100 per file.
type Options struct {
	Jobs           int
	MaxDiagnostics int
	// Write stores outputs next to the inputs; scan and --stdout leave it off.
	Write bool
	// Cache is consulted before expanding; nil disables caching.
	Cache   *DiskCache
	Sink    pipeline.ProgressSink
	Timings *pipeline.Timings
}

// FileResult is the outcome for one input.
type FileResult struct {
	Path    string
	OutPath string
	FileID  source.FileID
	Output  []byte
	Calls   int
	Cached  bool
	Skipped bool
	Written bool
	Bag     *diag.Bag
}

// Failed reports whether the file produced an error diagnostic.
func (r *FileResult) Failed() bool {
	return r.Bag != nil && r.Bag.HasErrors()
}

var errFileFailed = errors.New("file has errors")

type Expander struct {
	cfg  config.Config
	eng  *layout.Engine
	opts Options
}

func New(cfg config.Config, opts Options) (*Expander, error) {
	target, err := cfg.LayoutTarget()
	if err != nil {
		return nil, err
	}
	eng, err := layout.New(target)
	if err != nil {
		return nil, err
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	return &Expander{cfg: cfg, eng: eng, opts: opts}, nil
}

// Expand expands a file already loaded into fs. It neither consults the
// cache nor writes anything.
func (x *Expander) Expand(ctx context.Context, fs *source.FileSet, id source.FileID, explicit bool) FileResult {
	file := fs.Get(id)
	res := FileResult{FileID: id, Bag: diag.NewBag(x.opts.MaxDiagnostics)}
	if file == nil {
		return res
	}
	res.Path = file.Path
	res.OutPath = OutputPath(file.Path, x.cfg.Generate.Suffix)

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeModule, file.Path, trace.CurrentSpan(ctx).SpanID)

	var (
		cur pipeline.Stage
		at  time.Time
	)
	advance := func(next pipeline.Stage) {
		now := time.Now()
		if cur != "" {
			x.opts.Timings.Add(cur, now.Sub(at))
		}
		cur, at = next, now
		if next != "" {
			pipeline.Report(x.opts.Sink, pipeline.Event{File: file.Path, Stage: next, Status: pipeline.StatusWorking})
		}
	}

	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	fx := &fileExpander{
		cfg:      x.cfg,
		eng:      x.eng,
		file:     file,
		src:      file.Content,
		reporter: reporter,
		tracer:   tracer,
		parent:   span.ID(),
		advance:  advance,
	}
	out := fx.run(explicit)
	advance("")
	res.Output = out.output
	res.Calls = out.calls
	res.Skipped = out.skipped
	if res.Failed() {
		res.Output = nil
	}
	span.WithExtra("target", x.eng.Target.Triple)
	span.End(fmt.Sprintf("calls=%d diags=%d dup=%d", res.Calls, res.Bag.Len(), reporter.Dropped()))
	return res
}

// Run collects inputs from paths and expands them in parallel. Results
// are sorted by path. The returned error covers collection and
// cancellation only; per-file problems are diagnostics.
func (x *Expander) Run(ctx context.Context, paths []string) (*source.FileSet, []FileResult, error) {
	inputs, err := Collect(paths, x.cfg.Generate.Suffix)
	if err != nil {
		return nil, nil, err
	}
	fs := source.NewFileSet()
	if len(inputs) == 0 {
		return fs, nil, nil
	}

	tracer := trace.FromContext(ctx)
	progress := trace.ProgressFrom(ctx)
	progress.AddFiles(len(inputs))
	loadSpan := trace.Begin(tracer, trace.ScopePass, "load", trace.CurrentSpan(ctx).SpanID)
	ids := make([]source.FileID, len(inputs))
	loadErrors := make(map[int]error)
	for i, in := range inputs {
		pipeline.Report(x.opts.Sink, pipeline.Event{File: in.Path, Stage: pipeline.StageLoad, Status: pipeline.StatusQueued})
		id, err := fs.Load(in.Path)
		if err != nil {
			// пустой файл-заглушка, чтобы диагностике было на что указывать
			loadErrors[i] = err
			ids[i] = fs.Add(in.Path, nil, source.FileVirtual)
			continue
		}
		ids[i] = id
	}
	loadSpan.End(fmt.Sprintf("files=%d", len(inputs)))

	jobs := x.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(inputs)))

	for i, in := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			progress.StartFile(in.Path)
			if loadErr, failed := loadErrors[i]; failed {
				results[i] = x.loadFailure(in.Path, ids[i], loadErr)
			} else {
				results[i] = x.process(gctx, fs, ids[i], in)
			}
			progress.FinishFile(in.Path, results[i].Calls, results[i].Failed())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fs, nil, err
	}
	return fs, results, nil
}

func (x *Expander) loadFailure(path string, id source.FileID, err error) FileResult {
	bag := diag.NewBag(x.opts.MaxDiagnostics)
	bag.Add(&diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IOLoadFileError,
		Message:  "failed to load file: " + err.Error(),
		Primary:  source.Span{File: id},
	})
	pipeline.Report(x.opts.Sink, pipeline.Event{File: path, Stage: pipeline.StageLoad, Status: pipeline.StatusError, Err: err})
	return FileResult{Path: path, OutPath: OutputPath(path, x.cfg.Generate.Suffix), FileID: id, Bag: bag}
}

// process runs cache lookup, expansion and the write stage for one file.
func (x *Expander) process(ctx context.Context, fs *source.FileSet, id source.FileID, in Input) FileResult {
	file := fs.Get(id)
	started := time.Now()

	var key Digest
	useCache := x.opts.Cache != nil
	if useCache {
		key = CacheKey(file.Content, source.BaseName(file.Path), x.cfg.Fingerprint())
		var payload DiskPayload
		if hit, err := x.opts.Cache.Get(key, &payload); err == nil && hit {
			res := FileResult{
				Path:    file.Path,
				OutPath: OutputPath(file.Path, x.cfg.Generate.Suffix),
				FileID:  id,
				Output:  payload.Output,
				Calls:   payload.Calls,
				Cached:  true,
				Bag:     diag.NewBag(x.opts.MaxDiagnostics),
			}
			for _, d := range fromCached(id, payload.Diags) {
				res.Bag.Add(d)
			}
			x.opts.Timings.Add(pipeline.StageCache, time.Since(started))
			pipeline.Report(x.opts.Sink, pipeline.Event{File: in.Path, Stage: pipeline.StageCache, Status: pipeline.StatusDone, Elapsed: time.Since(started)})
			x.write(&res)
			return res
		}
	}

	res := x.Expand(ctx, fs, id, in.Explicit)
	if res.Failed() {
		pipeline.Report(x.opts.Sink, pipeline.Event{File: in.Path, Stage: pipeline.StageEmit, Status: pipeline.StatusError,
			Err: errFileFailed, Elapsed: time.Since(started)})
		return res
	}
	if res.Skipped {
		pipeline.Report(x.opts.Sink, pipeline.Event{File: in.Path, Stage: pipeline.StageScan, Status: pipeline.StatusDone})
		return res
	}
	if useCache {
		// кэш лишь оптимизация, ошибка записи не фатальна
		_ = x.opts.Cache.Put(key, &DiskPayload{
			Output: res.Output,
			Calls:  res.Calls,
			Diags:  toCached(res.Bag.Items()),
		})
	}
	x.write(&res)
	return res
}

// write stores res.Output unless the file on disk already matches.
func (x *Expander) write(res *FileResult) {
	if !x.opts.Write || res.Output == nil {
		if !res.Failed() {
			pipeline.Report(x.opts.Sink, pipeline.Event{File: res.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusDone})
		}
		return
	}
	started := time.Now()
	pipeline.Report(x.opts.Sink, pipeline.Event{File: res.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusWorking})

	defer func() { x.opts.Timings.Add(pipeline.StageWrite, time.Since(started)) }()

	if existing, err := os.ReadFile(res.OutPath); err == nil && bytes.Equal(existing, res.Output) {
		pipeline.Report(x.opts.Sink, pipeline.Event{File: res.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusDone})
		return
	}
	if err := os.WriteFile(res.OutPath, res.Output, 0o644); err != nil {
		res.Bag.Add(&diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.IOWriteFileError,
			Message:  fmt.Sprintf("failed to write %s: %v", res.OutPath, err),
			Primary:  source.Span{File: res.FileID},
		})
		pipeline.Report(x.opts.Sink, pipeline.Event{File: res.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusError, Err: err})
		return
	}
	res.Written = true
	pipeline.Report(x.opts.Sink, pipeline.Event{File: res.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusDone})
}
