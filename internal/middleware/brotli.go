package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	Quality   int
	MinLength int
	// Types lists the compressible media types; a trailing "/" matches a
	// whole family such as "text/".
	Types []string
}

// DefaultBrotliConfig compresses JSON, plain text and HTML previews. PDF and
// xlsx downloads are already compressed and go out untouched.
var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
	Types:     []string{"text/", "application/json", "image/svg+xml"},
}

// brotliWriter holds back the first MinLength bytes so small bodies and
// non-compressible payloads are written as-is.
type brotliWriter struct {
	gin.ResponseWriter
	cfg      *BrotliConfig
	enc      *brotli.Writer
	buf      []byte
	decided  bool
	compress bool
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	switch {
	case bw.compress:
		return bw.enc.Write(data)
	case bw.decided:
		return bw.ResponseWriter.Write(data)
	case !bw.cfg.compressible(bw.Header().Get("Content-Type")):
		bw.decided = true
		return bw.ResponseWriter.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.cfg.MinLength {
		return len(data), nil
	}

	bw.decided, bw.compress = true, true
	bw.Header().Set("Content-Encoding", "br")
	bw.Header().Del("Content-Length")
	bw.enc = brotli.NewWriterLevel(bw.ResponseWriter, bw.cfg.Quality)
	_, err := bw.enc.Write(bw.buf)
	bw.buf = nil
	return len(data), err
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// finish closes the encoder, or writes a held-back body that never reached
// MinLength.
func (bw *brotliWriter) finish() error {
	if bw.compress {
		return bw.enc.Close()
	}
	if len(bw.buf) == 0 {
		return nil
	}
	_, err := bw.ResponseWriter.Write(bw.buf)
	bw.buf = nil
	return err
}

func (cfg *BrotliConfig) compressible(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mediaType == "" {
		return false
	}
	for _, t := range cfg.Types {
		if mediaType == t || (strings.HasSuffix(t, "/") && strings.HasPrefix(mediaType, t)) {
			return true
		}
	}
	return false
}

// Brotli compresses responses for clients that accept br.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

// BrotliWithConfig is Brotli with explicit settings.
func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}
	if len(cfg.Types) == 0 {
		cfg.Types = DefaultBrotliConfig.Types
	}

	return func(c *gin.Context) {
		// The preview socket handshake must reach the handler unwrapped.
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		bw := &brotliWriter{ResponseWriter: c.Writer, cfg: &cfg}
		defer func() {
			if err := bw.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		// "br;q=0" opts out
		name, q, _ := strings.Cut(strings.TrimSpace(strings.ToLower(enc)), ";")
		if strings.TrimSpace(name) == "br" && strings.ReplaceAll(q, " ", "") != "q=0" {
			return true
		}
	}
	return false
}
