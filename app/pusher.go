package app

import (
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/options"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// Pusher push 命令：把本地目录上传到桶里，键为 前缀 + 相对路径
type Pusher struct {
	*base
}

func NewPusher(opts *options.Options) (App, error) {
	b, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	return &Pusher{base: b}, nil
}

func (p *Pusher) Run() error {
	defer p.begin()()

	q := p.opts.Query
	logger := log.Named("pusher").With("bucket", q.Bucket, "dir", p.opts.Dir)

	if err := p.backend.CreateBucket(p.ctx, q.Bucket); err != nil {
		return err
	}

	files, err := collectFiles(p.opts.Dir)
	if err != nil {
		return err
	}

	var (
		uploaded atomic.Int64
		total    atomic.Int64
	)
	g, ctx := errgroup.WithContext(p.ctx)
	g.SetLimit(p.opts.Jobs)
	for _, rel := range files {
		key := q.Prefix + rel
		local := filepath.Join(p.opts.Dir, filepath.FromSlash(rel))
		g.Go(func() error {
			f, err := os.Open(local)
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}
			ct, err := contentType(key, f)
			if err != nil {
				return err
			}
			if err := p.backend.UploadObjectStream(ctx, q.Bucket, key, f, ct); err != nil {
				logger.Errorw("Upload failed", "key", key, "error", err)
				return err
			}
			uploaded.Add(1)
			total.Add(info.Size())
			logger.Debugw("Uploaded", "key", key, "size", info.Size())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Infow("Push completed", "objects", uploaded.Load(), "bytes", total.Load())
	return nil
}

// collectFiles 返回 dir 下所有普通文件的相对路径（正斜杠），按字典序
func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

// contentType 优先按内容识别，识别不出时按扩展名，读取后把文件指针移回开头
func contentType(key string, f io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if !mt.Is("application/octet-stream") {
		return mt.String(), nil
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct, nil
	}
	return mt.String(), nil
}
