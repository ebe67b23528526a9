package main

import "github.com/elastic-io/bucketzip/cmd"

// version must be set from the contents of VERSION file by go build's
// -X main.version= option in the Makefile.
var version = "unknown"

// gitCommit will be the hash that the binary was built from
// and will be populated by the Makefile
var gitCommit = ""

const (
	usage = `
To download a bucket as a zip archive:
    # bucketzip archive --prefix reports/ -o reports.zip my-bucket

To serve archives over HTTP:
    # bucketzip serve -e 127.0.0.1:8080
`
)

func main() {
	cmd.Execute("bucketzip", usage, version, gitCommit)
}
