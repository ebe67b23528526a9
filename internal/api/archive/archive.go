// Package archive serves bucket contents over HTTP: a streaming zip download
// and a JSON object listing.
package archive

import (
	"bufio"
	"context"
	"path"
	"strings"

	"github.com/elastic-io/bucketzip/internal/api"
	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/pipeline"
	"github.com/elastic-io/bucketzip/internal/source"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/gofiber/fiber/v2"
)

func init() {
	api.APIRegister("archive", &ArchiveAPI{})
	api.APIRegister("objects", &ObjectsAPI{})
}

// ArchiveAPI GET /archive/:bucket
type ArchiveAPI struct {
	region   string
	pipeline *pipeline.Pipeline
}

func (a *ArchiveAPI) Init(c *config.Config) error {
	p, err := c.Pipeline()
	if err != nil {
		return err
	}
	a.region = c.Storage.Region
	a.pipeline = p
	return nil
}

func (a *ArchiveAPI) RegisterRoutes(r fiber.Router) {
	log.Logger.Info("Registering archive routes")
	r.Get("/archive/:bucket", a.handleArchive)
}

func (a *ArchiveAPI) handleArchive(c *fiber.Ctx) error {
	q := bucketQuery(c, a.region)
	logger := log.Named("archive").With("request_id", c.Locals("request_id"), "bucket", q.Bucket, "prefix", q.Prefix)

	// 客户端断开只能通过写失败感知，不能用请求上下文
	ctx, cancel := context.WithCancel(context.Background())
	run, err := a.pipeline.Start(ctx, q)
	if err != nil {
		cancel()
		return err
	}

	c.Attachment(archiveName(c.Query("name"), q))
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		report, err := run.WriteTo(ctx, &flushWriter{w: w})
		if err != nil {
			if report != nil {
				logger = logger.With("entries", len(report.Entries), "bytes", report.Bytes)
			}
			logger.Errorw("Archive stream aborted", "error", err)
			return
		}
		logger.Infow("Archive delivered", "entries", len(report.Entries), "skipped", len(report.Skipped), "bytes", report.Bytes)
	})
	return nil
}

// ObjectsAPI GET /objects/:bucket
type ObjectsAPI struct {
	region string
	lister *source.Lister
}

// DefaultLimit 单次返回的最大对象数
const DefaultLimit = 1000

func (o *ObjectsAPI) Init(c *config.Config) error {
	l, err := c.Lister()
	if err != nil {
		return err
	}
	o.region = c.Storage.Region
	o.lister = l
	return nil
}

func (o *ObjectsAPI) RegisterRoutes(r fiber.Router) {
	log.Logger.Info("Registering object listing routes")
	r.Get("/objects/:bucket", o.handleObjects)
}

func (o *ObjectsAPI) handleObjects(c *fiber.Ctx) error {
	q := bucketQuery(c, o.region)
	if err := q.Validate(); err != nil {
		return err
	}
	limit := c.QueryInt("limit", DefaultLimit)
	if limit <= 0 || limit > 10*DefaultLimit {
		return errdefs.Configuration("limit %d out of range", limit)
	}

	ctx := c.UserContext()
	objects := o.lister.ListAll(ctx, q)
	if err := objects.Prime(ctx); err != nil {
		return err
	}

	list := types.ObjectList{Bucket: q.Bucket, Prefix: q.Prefix, Objects: []types.ObjectDescriptor{}}
	for objects.Next(ctx) {
		if len(list.Objects) == limit {
			list.Truncated = true
			list.NextMarker = list.Objects[limit-1].Key
			break
		}
		list.Objects = append(list.Objects, objects.Object())
	}
	if err := objects.Err(); err != nil {
		return err
	}

	data, err := list.MarshalJSON()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(data)
}

func bucketQuery(c *fiber.Ctx, region string) types.BucketQuery {
	return types.BucketQuery{
		Bucket:    c.Params("bucket"),
		Region:    c.Query("region", region),
		Prefix:    c.Query("prefix"),
		Delimiter: c.Query("delimiter"),
		Marker:    c.Query("marker"),
	}
}

// archiveName 下载文件名，默认取桶名加前缀的最后一段
func archiveName(name string, q types.BucketQuery) string {
	if name == "" {
		name = q.Bucket
		if base := path.Base(strings.TrimSuffix(q.Prefix, "/")); q.Prefix != "" && base != "." && base != "/" {
			name += "-" + base
		}
	}
	name = path.Base(name)
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return name
}

// flushWriter 每次写入后立即 flush，连接断开时写入返回错误，流程随之终止
type flushWriter struct {
	w *bufio.Writer
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.w.Flush()
}
