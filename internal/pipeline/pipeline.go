// Package pipeline drives lister, fetcher and zip writer to produce one
// archive per bucket query.
//
// Objects are written in listing order, one at a time, and at most one chunk
// of each object is held in memory. A failure stops the run without writing
// the central directory, so a partial archive is never mistaken for a
// complete one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/source"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/elastic-io/bucketzip/internal/zipstream"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline 可复用的打包流程，每次 Start 得到一个独立的 Run
type Pipeline struct {
	lister  *source.Lister
	fetcher source.Fetcher

	chunkSize int
	policy    Policy
	method    zipstream.Method
	level     int
	prefetch  bool
	namer     func(string) string
	relative  bool
	comment   string

	buffers sync.Pool
}

func New(lister *source.Lister, fetcher source.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		lister:    lister,
		fetcher:   fetcher,
		chunkSize: DefaultChunkSize,
		policy:    FailFast,
		method:    zipstream.Store,
		level:     flate.DefaultCompression,
		namer:     BaseNamer,
	}
	for _, opt := range opts {
		opt(p)
	}
	size := p.chunkSize
	p.buffers.New = func() interface{} {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Stream 等同于 Start 之后立即 WriteTo
func (p *Pipeline) Stream(ctx context.Context, q types.BucketQuery, sink io.Writer) (*types.ArchiveReport, error) {
	run, err := p.Start(ctx, q)
	if err != nil {
		return nil, err
	}
	return run.WriteTo(ctx, sink)
}

// Start 校验查询并拉取第一页列举结果，配置和列举错误在写出任何字节之前返回
func (p *Pipeline) Start(ctx context.Context, q types.BucketQuery) (*Run, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if len(p.comment) > MaxCommentLen {
		return nil, errdefs.Configuration("archive comment is %d bytes, at most %d", len(p.comment), MaxCommentLen)
	}
	objects := p.lister.ListAll(ctx, q)
	if err := objects.Prime(ctx); err != nil {
		return nil, err
	}
	namer := p.namer
	if p.relative {
		namer = RelativeNamer(q.Prefix)
	}
	return &Run{p: p, q: q, objects: objects, namer: namer}, nil
}

// Run 一次打包，只能 WriteTo 一次
type Run struct {
	p       *Pipeline
	q       types.BucketQuery
	objects *source.Objects
	namer   func(string) string

	mu   sync.Mutex
	used bool
}

// pending 一个已经打开（或打开失败）的对象
type pending struct {
	desc types.ObjectDescriptor
	name string
	rc   io.ReadCloser
	err  error
}

func (it *pending) release() {
	if it.rc != nil {
		it.rc.Close()
	}
}

// WriteTo 把整个归档写入 sink，返回的报告在失败时也描述已经写出的部分
func (r *Run) WriteTo(ctx context.Context, sink io.Writer) (*types.ArchiveReport, error) {
	r.mu.Lock()
	if r.used {
		r.mu.Unlock()
		return nil, errdefs.InvalidState("WriteTo", "already streamed")
	}
	r.used = true
	r.mu.Unlock()

	logger := log.Named("pipeline").With("bucket", r.q.Bucket, "prefix", r.q.Prefix)
	start := time.Now()

	zw := zipstream.NewWriter(sink,
		zipstream.WithMethod(r.p.method),
		zipstream.WithLevel(r.p.level),
		zipstream.WithComment(r.p.comment))
	report := &types.ArchiveReport{Bucket: r.q.Bucket, Prefix: r.q.Prefix}

	err := r.writeEntries(ctx, zw, report, logger)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		if err = zw.Finish(); err != nil {
			err = fmt.Errorf("write central directory: %w", err)
		}
	}
	report.Bytes = zw.Offset()
	if err != nil {
		logger.Errorw("Archive aborted", "entries", len(report.Entries), "bytes", report.Bytes, "error", err)
		return report, err
	}

	report.Finished = true
	logger.Infow("Archive finished",
		"entries", len(report.Entries),
		"skipped", len(report.Skipped),
		"bytes", report.Bytes,
		"pages", r.objects.Pages(),
		"elapsed", time.Since(start))
	return report, nil
}

func (r *Run) writeEntries(ctx context.Context, zw *zipstream.Writer, report *types.ArchiveReport, logger *zap.SugaredLogger) error {
	var next func() (*pending, bool)
	if r.p.prefetch {
		pctx, cancel := context.WithCancel(ctx)
		ch, wait := r.prefetchEntries(pctx)
		defer func() {
			// 终止时释放已经预取的流
			cancel()
			for it := range ch {
				it.release()
			}
			wait()
		}()
		next = func() (*pending, bool) {
			it, ok := <-ch
			return it, ok
		}
	} else {
		next = func() (*pending, bool) {
			it := r.nextPending(ctx, logger)
			return it, it != nil
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		it, ok := next()
		if !ok {
			break
		}
		if err := r.handle(ctx, zw, report, it, logger); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.objects.Err()
}

// nextPending 取下一个需要写入的对象并打开它，序列结束时返回 nil
func (r *Run) nextPending(ctx context.Context, logger *zap.SugaredLogger) *pending {
	for r.objects.Next(ctx) {
		d := r.objects.Object()
		name := r.namer(d.Key)
		if name == "" {
			logger.Debugw("Skipping directory marker", "key", d.Key)
			continue
		}
		// 先打开再写条目头，打开失败时归档里不会留下半个条目
		rc, err := r.p.fetcher.Open(ctx, d)
		return &pending{desc: d, name: name, rc: rc, err: err}
	}
	return nil
}

// prefetchEntries 在独立的 goroutine 中按列举顺序依次打开对象，
// 通道不带缓冲，所以最多领先消费者一个对象
func (r *Run) prefetchEntries(ctx context.Context) (<-chan *pending, func()) {
	ch := make(chan *pending)
	logger := log.Named("prefetch").With("bucket", r.q.Bucket)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ch)
		for {
			it := r.nextPending(gctx, logger)
			if it == nil {
				return nil
			}
			select {
			case ch <- it:
			case <-gctx.Done():
				it.release()
				return nil
			}
		}
	})
	return ch, func() { _ = g.Wait() }
}

func (r *Run) handle(ctx context.Context, zw *zipstream.Writer, report *types.ArchiveReport, it *pending, logger *zap.SugaredLogger) error {
	defer it.release()
	d := it.desc

	if it.err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if r.p.policy == SkipFailed && errdefs.IsFetch(it.err) {
			logger.Warnw("Skipping object", "key", d.Key, "error", it.err)
			report.Skipped = append(report.Skipped, types.SkippedObject{Key: d.Key, Reason: it.err.Error()})
			return nil
		}
		return it.err
	}

	if err := r.copyEntry(ctx, zw, it); err != nil {
		return err
	}

	info, _ := zw.Last()
	report.Entries = append(report.Entries, types.EntryReport{
		Name:           info.Name,
		Key:            d.Key,
		Size:           info.UncompressedSize,
		CompressedSize: info.CompressedSize,
		Offset:         info.Offset,
		CRC32:          info.CRC32,
	})
	logger.Debugw("Entry written",
		"key", d.Key,
		"name", info.Name,
		"size", info.UncompressedSize,
		"compressed", info.CompressedSize,
		"crc32", info.CRC32)
	return nil
}

func (r *Run) copyEntry(ctx context.Context, zw *zipstream.Writer, it *pending) error {
	d := it.desc
	if err := zw.BeginEntry(it.name, zipstream.WithModified(d.LastModified)); err != nil {
		return fmt.Errorf("begin entry %s: %w", it.name, err)
	}

	bufp := r.p.buffers.Get().(*[]byte)
	defer r.p.buffers.Put(bufp)
	buf := *bufp

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := it.rc.Read(buf)
		if n > 0 {
			if _, werr := zw.WriteChunk(buf[:n]); werr != nil {
				return fmt.Errorf("write entry %s: %w", it.name, werr)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !errdefs.IsFetch(rerr) {
				rerr = errdefs.Fetch("read", d.Bucket, d.Key, rerr)
			}
			return rerr
		}
	}

	if err := zw.EndEntry(); err != nil {
		return fmt.Errorf("end entry %s: %w", it.name, err)
	}
	return nil
}
