// Package s3 exposes a local bolt/badger store through a read-only subset of
// the S3 REST API (path-style), so another bucketzip instance or any S3 client
// can list and archive it remotely.
package s3

import (
	"encoding/xml"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/elastic-io/bucketzip/internal/api"
	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/source"
	"github.com/elastic-io/bucketzip/internal/storage"
	"github.com/elastic-io/bucketzip/internal/utils"
	"github.com/gofiber/fiber/v2"
)

const (
	namespace  = "http://s3.amazonaws.com/doc/2006-03-01/"
	timeFormat = "2006-01-02T15:04:05.000Z"
	maxKeys    = 1000
)

func init() {
	api.APIRegister("s3", &S3API{})
}

type S3API struct {
	storage storage.Storage
}

// S3 API 响应结构
type ListBucketResult struct {
	XMLName               xml.Name         `xml:"ListBucketResult"`
	Xmlns                 string           `xml:"xmlns,attr"`
	Name                  string           `xml:"Name"`
	Prefix                string           `xml:"Prefix"`
	Delimiter             string           `xml:"Delimiter,omitempty"`
	StartAfter            string           `xml:"StartAfter,omitempty"`
	ContinuationToken     string           `xml:"ContinuationToken,omitempty"`
	NextContinuationToken string           `xml:"NextContinuationToken,omitempty"`
	KeyCount              int              `xml:"KeyCount"`
	MaxKeys               int              `xml:"MaxKeys"`
	IsTruncated           bool             `xml:"IsTruncated"`
	Contents              []S3Object       `xml:"Contents,omitempty"`
	CommonPrefixes        []CommonPrefixes `xml:"CommonPrefixes,omitempty"`
}

type S3Object struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type CommonPrefixes struct {
	Prefix string `xml:"Prefix"`
}

type ListAllMyBucketsResult struct {
	XMLName xml.Name `xml:"ListAllMyBucketsResult"`
	Xmlns   string   `xml:"xmlns,attr"`
	Owner   struct {
		ID          string `xml:"ID"`
		DisplayName string `xml:"DisplayName"`
	} `xml:"Owner"`
	Buckets []Bucket `xml:"Buckets>Bucket"`
}

type Bucket struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

type ErrorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource"`
	RequestID string   `xml:"RequestId"`
}

// Init 只支持本地仓库作为数据源
func (a *S3API) Init(c *config.Config) error {
	local, ok := c.Backend.(*source.Local)
	if !ok {
		return errdefs.Configuration("s3 module requires a bolt or badger provider, got %q", c.Storage.Provider)
	}
	a.storage = local.Storage()
	return nil
}

func (a *S3API) RegisterRoutes(r fiber.Router) {
	log.Logger.Info("Registering S3 compatible API routes")

	s3 := r.Group("/s3")
	s3.Get("/", a.handleListBuckets)
	s3.Head("/:bucket", a.handleHeadBucket)
	s3.Get("/:bucket", a.handleBucket)
	s3.Get("/:bucket/", a.handleBucket)
	s3.Get("/:bucket/*", a.handleGetObject)
	s3.Head("/:bucket/*", a.handleGetObject)
}

func (a *S3API) handleListBuckets(c *fiber.Ctx) error {
	buckets, err := a.storage.ListBuckets()
	if err != nil {
		return a.sendError(c, fiber.StatusInternalServerError, "InternalError", err.Error())
	}

	result := ListAllMyBucketsResult{Xmlns: namespace}
	result.Owner.ID = "bucketzip"
	result.Owner.DisplayName = "bucketzip"
	for _, b := range buckets {
		result.Buckets = append(result.Buckets, Bucket{Name: b.Name, CreationDate: b.CreationDate.UTC().Format(timeFormat)})
	}
	return sendXML(c, fiber.StatusOK, result)
}

func (a *S3API) handleHeadBucket(c *fiber.Ctx) error {
	exists, err := a.storage.BucketExists(c.Params("bucket"))
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if !exists {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (a *S3API) handleBucket(c *fiber.Ctx) error {
	switch {
	case c.Context().QueryArgs().Has("location"):
		return sendXML(c, fiber.StatusOK, struct {
			XMLName xml.Name `xml:"LocationConstraint"`
			Xmlns   string   `xml:"xmlns,attr"`
		}{Xmlns: namespace})
	case c.Query("list-type") == "2":
		return a.handleListObjectsV2(c)
	}
	return a.sendError(c, fiber.StatusNotImplemented, "NotImplemented", "only ListObjectsV2 is supported")
}

// handleListObjectsV2 续传标记就是上一页最后一个键
func (a *S3API) handleListObjectsV2(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	limit := maxKeys
	if v := c.Query("max-keys"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return a.sendError(c, fiber.StatusBadRequest, "InvalidArgument", "invalid max-keys "+v)
		}
		if n < limit {
			limit = n
		}
	}

	result := ListBucketResult{
		Xmlns:             namespace,
		Name:              bucket,
		Prefix:            c.Query("prefix"),
		Delimiter:         c.Query("delimiter"),
		StartAfter:        c.Query("start-after"),
		ContinuationToken: c.Query("continuation-token"),
		MaxKeys:           limit,
	}
	marker := result.StartAfter
	if result.ContinuationToken != "" {
		marker = result.ContinuationToken
	}

	records, prefixes, truncated, err := a.storage.ListObjects(bucket, result.Prefix, marker, result.Delimiter, limit)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotFound) {
			return a.sendError(c, fiber.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		}
		return a.sendError(c, fiber.StatusInternalServerError, "InternalError", err.Error())
	}

	for _, r := range records {
		result.Contents = append(result.Contents, S3Object{
			Key:          r.Key,
			LastModified: r.LastModified.UTC().Format(timeFormat),
			ETag:         r.ETag,
			Size:         r.Size,
			StorageClass: "STANDARD",
		})
	}
	for _, p := range prefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, CommonPrefixes{Prefix: p})
	}
	result.KeyCount = len(result.Contents) + len(result.CommonPrefixes)
	result.IsTruncated = truncated
	if truncated && len(records) > 0 {
		result.NextContinuationToken = records[len(records)-1].Key
	}
	return sendXML(c, fiber.StatusOK, result)
}

func (a *S3API) handleGetObject(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil || key == "" {
		return a.sendError(c, fiber.StatusBadRequest, "InvalidArgument", "invalid object key")
	}

	record, data, err := a.storage.GetObject(bucket, key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBucketNotFound):
			return a.sendError(c, fiber.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		case errors.Is(err, storage.ErrObjectNotFound):
			return a.sendError(c, fiber.StatusNotFound, "NoSuchKey", "The specified key does not exist")
		}
		return a.sendError(c, fiber.StatusInternalServerError, "InternalError", err.Error())
	}

	contentType := record.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderETag, record.ETag)
	c.Set(fiber.HeaderLastModified, record.LastModified.UTC().Format(http.TimeFormat))
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	// HEAD 请求的 body 由 fasthttp 丢弃，Content-Length 保留
	return c.Status(fiber.StatusOK).Send(data)
}

func (a *S3API) sendError(c *fiber.Ctx, status int, code, message string) error {
	log.Logger.Debugw("S3 request failed", "path", c.Path(), "status", status, "code", code)
	if c.Method() == fiber.MethodHead {
		return c.SendStatus(status)
	}
	return sendXML(c, status, ErrorResponse{
		Code:      code,
		Message:   message,
		Resource:  c.Path(),
		RequestID: utils.UID(utils.HEX, 16),
	})
}

func sendXML(c *fiber.Ctx, status int, v interface{}) error {
	data, err := xml.Marshal(v)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXML)
	return c.Status(status).Send(append([]byte(xml.Header), data...))
}
