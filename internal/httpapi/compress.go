package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressionMethod produces an encoding writer over the raw response.
// Writer sets the Content-Encoding header itself, so creating one commits
// the response to that encoding.
type CompressionMethod interface {
	Name() string
	Writer(w http.ResponseWriter) (FlusherWriter, error)
}

type FlusherWriter interface {
	io.Writer
	Flush() error
	Close() error
}

type ZstdCompression struct{}

func (ZstdCompression) Name() string { return "zstd" }

func (ZstdCompression) Writer(w http.ResponseWriter) (FlusherWriter, error) {
	w.Header().Set("Content-Encoding", "zstd")
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &zstdFlusherWriter{zw: zw}, nil
}

type zstdFlusherWriter struct {
	zw *zstd.Encoder
}

func (z *zstdFlusherWriter) Write(p []byte) (int, error) { return z.zw.Write(p) }
func (z *zstdFlusherWriter) Flush() error                { return z.zw.Flush() }
func (z *zstdFlusherWriter) Close() error                { return z.zw.Close() }

type GzipCompression struct{}

func (GzipCompression) Name() string { return "gzip" }

func (GzipCompression) Writer(w http.ResponseWriter) (FlusherWriter, error) {
	w.Header().Set("Content-Encoding", "gzip")
	return &gzipFlusherWriter{gz: gzip.NewWriter(w)}, nil
}

type gzipFlusherWriter struct {
	gz *gzip.Writer
}

func (g *gzipFlusherWriter) Write(p []byte) (int, error) { return g.gz.Write(p) }
func (g *gzipFlusherWriter) Flush() error                { return g.gz.Flush() }
func (g *gzipFlusherWriter) Close() error                { return g.gz.Close() }

// Compress negotiates zstd then gzip from Accept-Encoding and streams the
// response through the winner. Clients that accept neither get the bytes
// untouched.
func Compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		comp := negotiate(r.Header.Get("Accept-Encoding"))
		if comp == nil || r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}
		cw := &compressWriter{ResponseWriter: w, comp: comp}
		defer cw.finish()
		next.ServeHTTP(cw, r)
	})
}

func negotiate(acceptEncoding string) CompressionMethod {
	var gzipOK bool
	for _, part := range strings.Split(acceptEncoding, ",") {
		token := part
		if i := strings.IndexByte(token, ';'); i >= 0 {
			token = token[:i]
		}
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "zstd":
			return ZstdCompression{}
		case "gzip":
			gzipOK = true
		}
	}
	if gzipOK {
		return GzipCompression{}
	}
	return nil
}

// compressWriter defers encoder creation to the first header write, so
// bodyless responses never grow an empty compressed trailer.
type compressWriter struct {
	http.ResponseWriter
	comp        CompressionMethod
	fw          FlusherWriter
	wroteHeader bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true

	h := cw.ResponseWriter.Header()
	if code == http.StatusNoContent || code == http.StatusNotModified || h.Get("Content-Encoding") != "" {
		cw.ResponseWriter.WriteHeader(code)
		return
	}

	h.Del("Content-Length")
	h.Add("Vary", "Accept-Encoding")
	fw, err := cw.comp.Writer(cw.ResponseWriter)
	if err != nil {
		h.Del("Content-Encoding")
	} else {
		cw.fw = fw
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(p []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.fw == nil {
		return cw.ResponseWriter.Write(p)
	}
	return cw.fw.Write(p)
}

func (cw *compressWriter) Flush() {
	if cw.fw != nil {
		_ = cw.fw.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) finish() {
	if cw.fw != nil {
		_ = cw.fw.Close()
	}
}
