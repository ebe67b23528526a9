package app

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/elastic-io/bucketzip/internal/options"
	"github.com/elastic-io/bucketzip/internal/types"
)

// Lister list 命令：按打包时的顺序列出对象
type Lister struct {
	*base
	out io.Writer
}

func NewLister(opts *options.Options) (App, error) {
	b, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	return &Lister{base: b, out: os.Stdout}, nil
}

func (l *Lister) Run() error {
	defer l.begin()()

	lister, err := l.opts.Config.Lister()
	if err != nil {
		return err
	}
	q := l.opts.Query
	objects := lister.ListAll(l.ctx, q)
	if err := objects.Prime(l.ctx); err != nil {
		return err
	}

	list := types.ObjectList{Bucket: q.Bucket, Prefix: q.Prefix, Objects: []types.ObjectDescriptor{}}
	for objects.Next(l.ctx) {
		if l.opts.Limit > 0 && len(list.Objects) == l.opts.Limit {
			list.Truncated = true
			list.NextMarker = list.Objects[len(list.Objects)-1].Key
			break
		}
		list.Objects = append(list.Objects, objects.Object())
	}
	if err := objects.Err(); err != nil {
		return err
	}

	if l.opts.Format == "json" {
		data, err := list.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(l.out, string(data))
		return err
	}
	return printTable(l.out, &list)
}

func printTable(out io.Writer, list *types.ObjectList) error {
	w := tabwriter.NewWriter(out, 12, 1, 3, ' ', 0)
	fmt.Fprint(w, "KEY\tSIZE\tLAST MODIFIED\tETAG\n")
	for _, o := range list.Objects {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", o.Key, o.Size, o.LastModified.UTC().Format(time.RFC3339), o.ETag)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if list.Truncated {
		_, err := fmt.Fprintf(out, "truncated, continue with --marker %s\n", list.NextMarker)
		return err
	}
	return nil
}
