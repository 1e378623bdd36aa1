package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// UploadField is the multipart field name the backend reads files from.
const UploadField = "file"

// ProgressFunc receives whole-number upload percentages.
type ProgressFunc func(percent int)

// Progress converts bytes sent into a percentage, rounded to the nearest integer.
//
// The boolean is false when the total is unknown, in which case nothing should be reported.
func Progress(loaded, total int64) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	return int(math.Round(float64(loaded) * 100 / float64(total))), true
}

type progressReader struct {
	r          io.Reader
	loaded     int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.onProgress != nil {
		p.loaded += int64(n)
		if pct, ok := Progress(p.loaded, p.total); ok {
			p.onProgress(pct)
		}
	}
	return n, err
}

func (p *progressReader) Size() int64 { return p.total }

// Upload sends content as a single-field multipart body and decodes the envelope payload into out.
func (c *Client) Upload(ctx context.Context, path, filename string, content io.Reader, onProgress ProgressFunc, out any, cfg *RequestConfig) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(UploadField, filepath.Base(filename))
	if err == nil {
		_, err = io.Copy(part, content)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		return c.reject(&Error{Kind: KindConfig, Method: http.MethodPost, Path: path, Message: "request configuration error", Err: err}, cfg)
	}

	headers := http.Header{}
	var upload RequestConfig
	if cfg != nil {
		upload = *cfg
		for k, vs := range cfg.Headers {
			headers[k] = vs
		}
	}
	headers.Set("Content-Type", mw.FormDataContentType())
	upload.Headers = headers

	body := &progressReader{r: &buf, total: int64(buf.Len()), onProgress: onProgress}
	return c.call(ctx, http.MethodPost, path, body, out, &upload)
}

// DownloadResult describes a saved download.
type DownloadResult struct {
	Path        string
	ContentType string
	Size        int64
}

// Download fetches binary content from path and saves it as filename inside dir.
//
// The body is written to a temporary file in dir that is removed on every exit path,
// then renamed into place once complete.
func (c *Client) Download(ctx context.Context, path, filename, dir string, cfg *RequestConfig) (*DownloadResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, cfg)
	if err != nil {
		return nil, c.reject(&Error{Kind: KindConfig, Method: http.MethodGet, Path: path, Message: "request configuration error", Err: err}, cfg)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Del("Content-Type")

	resp, err := c.send(req, cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentTypeFromFilename(filename)
	}

	if err := c.checkDownload(req, resp, cfg); err != nil {
		return nil, err
	}

	if dir == "" {
		dir = "."
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "download"
	}

	tmp, err := os.CreateTemp(dir, ".markx-download-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, c.reject(&Error{Kind: KindNetwork, Method: http.MethodGet, Path: path, Status: resp.StatusCode, Message: "network error, check connection", Err: err}, cfg)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("failed to save download: %w", err)
	}

	c.logger.Debug("download saved", "path", dest, "content_type", contentType, "bytes", size)
	return &DownloadResult{Path: dest, ContentType: contentType, Size: size}, nil
}

// checkDownload runs the response interceptor over a download that may carry an envelope.
//
// JSON bodies are peeked and restored so a legitimate JSON export is still saved.
func (c *Client) checkDownload(req *http.Request, resp *http.Response, cfg *RequestConfig) error {
	var env Envelope
	decoded := false

	if isJSON(resp.Header.Get("Content-Type")) || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.reject(&Error{Kind: KindNetwork, Method: req.Method, Path: req.URL.Path, Status: resp.StatusCode, Message: "network error, check connection", Err: err}, cfg)
		}
		resp.Body = io.NopCloser(bytes.NewReader(data))

		var head struct {
			Code *int `json:"code"`
		}
		if json.Unmarshal(data, &head) == nil && head.Code != nil {
			decoded = json.Unmarshal(data, &env) == nil
		}
	}

	return c.intercept(req, resp.StatusCode, &env, decoded, cfg)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

var contentTypes = map[string]string{
	"json": "application/json",
	"csv":  "text/csv",
	"txt":  "text/plain",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
}

// ContentTypeFromFilename maps a file extension to its MIME type.
//
// Unknown extensions and names without one map to application/octet-stream.
func ContentTypeFromFilename(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
