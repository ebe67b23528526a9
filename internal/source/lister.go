package source

import (
	"context"
	"fmt"

	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/types"
)

// DefaultPageSize S3 单页上限
const DefaultPageSize = 1000

// Lister 把分页列举包装成按需拉取的对象序列
type Lister struct {
	pager    Pager
	pageSize int
}

func NewLister(p Pager, pageSize int) *Lister {
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	return &Lister{pager: p, pageSize: pageSize}
}

// ListAll 每次调用都从 q.Marker 开始一次新的列举，只能遍历一次
func (l *Lister) ListAll(ctx context.Context, q types.BucketQuery) *Objects {
	return &Objects{lister: l, q: q}
}

// Objects 惰性的对象序列，当前批次用完后才请求下一页
//
//	objs := lister.ListAll(ctx, q)
//	for objs.Next(ctx) {
//		d := objs.Object()
//	}
//	if err := objs.Err(); err != nil { ... }
type Objects struct {
	lister *Lister
	q      types.BucketQuery

	batch   []types.ObjectDescriptor
	current types.ObjectDescriptor
	token   string
	started bool
	done    bool
	pages   int
	err     error
}

// Prime 立即拉取第一页，让列举错误在输出任何字节之前暴露
func (o *Objects) Prime(ctx context.Context) error {
	if !o.started {
		o.fetch(ctx)
	}
	return o.err
}

// Next 前进到下一个对象，序列结束或出错时返回 false
func (o *Objects) Next(ctx context.Context) bool {
	for {
		if o.err != nil {
			return false
		}
		if len(o.batch) > 0 {
			o.current = o.batch[0]
			o.batch = o.batch[1:]
			return true
		}
		if o.done {
			return false
		}
		o.fetch(ctx)
	}
}

// Object 当前对象，只在 Next 返回 true 之后有效
func (o *Objects) Object() types.ObjectDescriptor { return o.current }

// Err 终止列举的错误，总是 ErrListing 类别
func (o *Objects) Err() error { return o.err }

// Pages 已请求的页数
func (o *Objects) Pages() int { return o.pages }

func (o *Objects) fetch(ctx context.Context) {
	o.started = true
	if err := ctx.Err(); err != nil {
		o.fail(err)
		return
	}

	page, err := o.lister.pager.ListPage(ctx, o.q, o.token, o.lister.pageSize)
	if err != nil {
		o.fail(err)
		return
	}
	o.pages++
	o.batch = page.Objects

	switch {
	case !page.Truncated:
		o.done = true
	case page.NextToken == "":
		log.Logger.Warnw("Listing truncated without continuation token, stopping", "bucket", o.q.Bucket, "pages", o.pages)
		o.done = true
	case page.NextToken == o.token:
		o.fail(fmt.Errorf("continuation token %q did not advance", page.NextToken))
	default:
		o.token = page.NextToken
	}
}

func (o *Objects) fail(err error) {
	o.err = errdefs.Listing(o.q.Bucket, err)
	o.batch = nil
	o.done = true
}
