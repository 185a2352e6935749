package publish

import (
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ProgressTrackingReader wraps a Reader to track upload progress.
type ProgressTrackingReader struct {
	underlying io.Reader
	name       string
	size       int64
	totalBytes int64
	log        zerolog.Logger
}

func (ptr *ProgressTrackingReader) Read(p []byte) (int, error) {
	n, err := ptr.underlying.Read(p)
	total := atomic.AddInt64(&ptr.totalBytes, int64(n))
	if n > 0 {
		ptr.log.Debug().
			Str("file", ptr.name).
			Float64("sent_mb", bytesToMegabytes(total)).
			Int64("size", ptr.size).
			Msg("uploading")
	}
	return n, err
}

// Total returns the number of bytes read so far.
func (ptr *ProgressTrackingReader) Total() int64 {
	return atomic.LoadInt64(&ptr.totalBytes)
}

func bytesToMegabytes(bytes int64) float64 {
	const bytesPerMegabyte = 1024 * 1024
	return float64(bytes) / float64(bytesPerMegabyte)
}

// NewProgressTrackingReader creates a ProgressTrackingReader given an underlying Reader.
func NewProgressTrackingReader(r io.Reader, name string, size int64, log zerolog.Logger) *ProgressTrackingReader {
	return &ProgressTrackingReader{
		underlying: r,
		name:       name,
		size:       size,
		log:        log,
	}
}
