package app

import (
	"bufio"
	"io"
	"os"

	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/options"
	"github.com/elastic-io/bucketzip/internal/types"
)

// Archiver archive 命令：把桶打包写到文件或 stdout
type Archiver struct {
	*base
	// stdout 为空时使用 os.Stdout
	stdout io.Writer
}

func NewArchiver(opts *options.Options) (App, error) {
	b, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	return &Archiver{base: b}, nil
}

func (a *Archiver) Run() error {
	defer a.begin()()

	p, err := a.opts.Config.Pipeline()
	if err != nil {
		return err
	}
	logger := log.Named("archiver").With("bucket", a.opts.Query.Bucket, "prefix", a.opts.Query.Prefix, "output", a.output())

	var (
		sink io.Writer
		file *os.File
	)
	if a.toStdout() {
		sink = a.stdout
		if sink == nil {
			sink = os.Stdout
		}
	} else {
		file, err = os.Create(a.opts.Output)
		if err != nil {
			return err
		}
		sink = file
	}
	bw := bufio.NewWriterSize(sink, 64*types.KB)

	report, err := p.Stream(a.ctx, a.opts.Query, bw)
	if err == nil {
		err = bw.Flush()
	}
	if file != nil {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		// 失败时不留下没有中央目录的半截文件
		if err != nil {
			os.Remove(a.opts.Output)
		}
	}
	if report != nil {
		if rerr := a.writeReport(report); rerr != nil {
			logger.Warnw("Write report failed", "report", a.opts.Report, "error", rerr)
		}
	}
	if err != nil {
		logger.Errorw("Archive failed", "error", err)
		return err
	}
	logger.Infow("Archive completed", "entries", len(report.Entries), "skipped", len(report.Skipped), "bytes", report.Bytes)
	return nil
}

func (a *Archiver) toStdout() bool {
	return a.opts.Output == "" || a.opts.Output == "-"
}

func (a *Archiver) output() string {
	if a.toStdout() {
		return "stdout"
	}
	return a.opts.Output
}

// writeReport 报告写到 --report 指定的文件，"-" 表示 stderr
func (a *Archiver) writeReport(report *types.ArchiveReport) error {
	if a.opts.Report == "" {
		return nil
	}
	data, err := report.MarshalJSON()
	if err != nil {
		return err
	}
	if a.opts.Report == "-" {
		_, err = os.Stderr.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(a.opts.Report, data, 0o644)
}
