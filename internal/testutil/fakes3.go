// Package testutil provides an in-process S3-compatible server for tests.
package testutil

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const s3Namespace = "http://s3.amazonaws.com/doc/2006-03-01/"

// FakeS3 understands the subset of the S3 REST API used by bucketzip:
// path-style ListBuckets, CreateBucket, HeadBucket, ListObjectsV2,
// GetObject, HeadObject and single-part PutObject. Authentication is ignored,
// so presigned URLs work as long as they point at the server.
type FakeS3 struct {
	ts *httptest.Server

	mu        sync.Mutex
	buckets   map[string]map[string]*fakeObject
	failures  map[string]int
	listCalls int
	getCalls  int
}

type fakeObject struct {
	data     []byte
	modified time.Time
	etag     string
}

// NewFakeS3 starts the server. Call Close when done.
func NewFakeS3() *FakeS3 {
	f := &FakeS3{
		buckets:  make(map[string]map[string]*fakeObject),
		failures: make(map[string]int),
	}
	f.ts = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	return f
}

func (f *FakeS3) Close() { f.ts.Close() }

// URL returns the base URL, e.g. http://127.0.0.1:1234.
func (f *FakeS3) URL() string { return f.ts.URL }

// Host returns host:port for clients that take an endpoint without scheme.
func (f *FakeS3) Host() string { return strings.TrimPrefix(f.ts.URL, "http://") }

// CreateBucket creates an empty bucket.
func (f *FakeS3) CreateBucket(bucket string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[bucket]; !ok {
		f.buckets[bucket] = make(map[string]*fakeObject)
	}
}

// PutObject stores an object, creating the bucket if needed.
func (f *FakeS3) PutObject(bucket, key string, data []byte) {
	f.CreateBucket(bucket)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket][key] = newFakeObject(data)
}

// Object returns the stored content of an object.
func (f *FakeS3) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return obj.data, true
}

// FailObject makes GET and HEAD of the object answer with the given status.
func (f *FakeS3) FailObject(bucket, key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[bucket+"/"+key] = status
}

// ListCalls reports how many ListObjectsV2 requests were served.
func (f *FakeS3) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// GetCalls reports how many GetObject requests were served.
func (f *FakeS3) GetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func newFakeObject(data []byte) *fakeObject {
	sum := md5.Sum(data)
	return &fakeObject{
		data:     data,
		modified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		etag:     `"` + hex.EncodeToString(sum[:]) + `"`,
	}
}

type errorResponse struct {
	XMLName    xml.Name `xml:"Error"`
	Code       string   `xml:"Code"`
	Message    string   `xml:"Message"`
	BucketName string   `xml:"BucketName,omitempty"`
	Key        string   `xml:"Key,omitempty"`
	RequestID  string   `xml:"RequestId"`
}

type listContent struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type commonPrefix struct {
	Prefix string `xml:"Prefix"`
}

type listResult struct {
	XMLName               xml.Name       `xml:"ListBucketResult"`
	Xmlns                 string         `xml:"xmlns,attr"`
	Name                  string         `xml:"Name"`
	Prefix                string         `xml:"Prefix"`
	Delimiter             string         `xml:"Delimiter,omitempty"`
	StartAfter            string         `xml:"StartAfter,omitempty"`
	ContinuationToken     string         `xml:"ContinuationToken,omitempty"`
	NextContinuationToken string         `xml:"NextContinuationToken,omitempty"`
	KeyCount              int            `xml:"KeyCount"`
	MaxKeys               int            `xml:"MaxKeys"`
	IsTruncated           bool           `xml:"IsTruncated"`
	Contents              []listContent  `xml:"Contents"`
	CommonPrefixes        []commonPrefix `xml:"CommonPrefixes"`
}

type bucketEntry struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

type listBucketsResult struct {
	XMLName xml.Name      `xml:"ListAllMyBucketsResult"`
	Xmlns   string        `xml:"xmlns,attr"`
	Buckets []bucketEntry `xml:"Buckets>Bucket"`
}

func writeXML(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, bucket, key string) {
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	writeXML(w, status, errorResponse{
		Code:       code,
		Message:    code,
		BucketName: bucket,
		Key:        key,
		RequestID:  "fake",
	})
}

func (f *FakeS3) serveHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	query := r.URL.Query()

	switch {
	case bucket == "":
		f.listBuckets(w)
	case key == "" && r.Method == http.MethodPut:
		f.CreateBucket(bucket)
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodHead:
		f.mu.Lock()
		_, ok := f.buckets[bucket]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && query.Has("location"):
		writeXML(w, http.StatusOK, struct {
			XMLName xml.Name `xml:"LocationConstraint"`
			Value   string   `xml:",chardata"`
		}{Value: "us-east-1"})
	case key == "" && query.Get("list-type") == "2":
		f.listObjects(w, r, bucket)
	case key != "" && r.Method == http.MethodPut:
		f.putObject(w, r, bucket, key)
	case key != "" && (r.Method == http.MethodGet || r.Method == http.MethodHead):
		f.getObject(w, r, bucket, key)
	default:
		writeError(w, r, http.StatusNotImplemented, "NotImplemented", bucket, key)
	}
}

func (f *FakeS3) listBuckets(w http.ResponseWriter) {
	f.mu.Lock()
	names := make([]string, 0, len(f.buckets))
	for name := range f.buckets {
		names = append(names, name)
	}
	f.mu.Unlock()
	sort.Strings(names)

	result := listBucketsResult{Xmlns: s3Namespace}
	for _, name := range names {
		result.Buckets = append(result.Buckets, bucketEntry{
			Name:         name,
			CreationDate: "2024-01-01T00:00:00.000Z",
		})
	}
	writeXML(w, http.StatusOK, result)
}

func (f *FakeS3) listObjects(w http.ResponseWriter, r *http.Request, bucket string) {
	query := r.URL.Query()

	f.mu.Lock()
	f.listCalls++
	objects, ok := f.buckets[bucket]
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	snapshot := make(map[string]*fakeObject, len(objects))
	for k, v := range objects {
		snapshot[k] = v
	}
	f.mu.Unlock()

	if !ok {
		writeError(w, r, http.StatusNotFound, "NoSuchBucket", bucket, "")
		return
	}
	sort.Strings(keys)

	prefix := query.Get("prefix")
	delimiter := query.Get("delimiter")
	maxKeys := 1000
	if v := query.Get("max-keys"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "InvalidArgument", bucket, "")
			return
		}
		maxKeys = n
	}
	after := query.Get("start-after")
	if token := query.Get("continuation-token"); token != "" {
		decoded, err := url.QueryUnescape(strings.TrimPrefix(token, "ct-"))
		if err != nil || !strings.HasPrefix(token, "ct-") {
			writeError(w, r, http.StatusBadRequest, "InvalidArgument", bucket, "")
			return
		}
		after = decoded
	}

	result := listResult{
		Xmlns:             s3Namespace,
		Name:              bucket,
		Prefix:            prefix,
		Delimiter:         delimiter,
		StartAfter:        query.Get("start-after"),
		ContinuationToken: query.Get("continuation-token"),
		MaxKeys:           maxKeys,
	}
	seen := make(map[string]bool)
	last := ""
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) || (after != "" && k <= after) {
			continue
		}
		if result.KeyCount >= maxKeys {
			result.IsTruncated = true
			result.NextContinuationToken = "ct-" + url.QueryEscape(last)
			break
		}
		if delimiter != "" {
			if idx := strings.Index(k[len(prefix):], delimiter); idx >= 0 {
				cp := k[:len(prefix)+idx+len(delimiter)]
				last = k
				if !seen[cp] {
					seen[cp] = true
					result.CommonPrefixes = append(result.CommonPrefixes, commonPrefix{Prefix: cp})
					result.KeyCount++
				}
				continue
			}
		}
		obj := snapshot[k]
		result.Contents = append(result.Contents, listContent{
			Key:          k,
			LastModified: obj.modified.Format("2006-01-02T15:04:05.000Z"),
			ETag:         obj.etag,
			Size:         int64(len(obj.data)),
			StorageClass: "STANDARD",
		})
		result.KeyCount++
		last = k
	}
	writeXML(w, http.StatusOK, result)
}

func (f *FakeS3) getObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	f.mu.Lock()
	if r.Method == http.MethodGet {
		f.getCalls++
	}
	objects, bucketOK := f.buckets[bucket]
	var obj *fakeObject
	if bucketOK {
		obj = objects[key]
	}
	status := f.failures[bucket+"/"+key]
	f.mu.Unlock()

	switch {
	case status != 0:
		writeError(w, r, status, http.StatusText(status), bucket, key)
		return
	case !bucketOK:
		writeError(w, r, http.StatusNotFound, "NoSuchBucket", bucket, key)
		return
	case obj == nil:
		writeError(w, r, http.StatusNotFound, "NoSuchKey", bucket, key)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	w.Header().Set("ETag", obj.etag)
	w.Header().Set("Last-Modified", obj.modified.Format(http.TimeFormat))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.data)
	}
}

func (f *FakeS3) putObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	f.mu.Lock()
	_, ok := f.buckets[bucket]
	f.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "NoSuchBucket", bucket, key)
		return
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		data, err = decodeAWSChunked(r.Body)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "IncompleteBody", bucket, key)
		return
	}

	obj := newFakeObject(data)
	f.mu.Lock()
	f.buckets[bucket][key] = obj
	f.mu.Unlock()
	w.Header().Set("ETag", obj.etag)
	w.WriteHeader(http.StatusOK)
}

// decodeAWSChunked strips the aws-chunked framing of streaming-signed uploads.
func decodeAWSChunked(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	var out []byte
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		n, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("bad chunk header %q: %w", line, err)
		}
		if n == 0 {
			return out, nil
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
		if _, err := br.ReadString('\n'); err != nil {
			return nil, err
		}
	}
}
