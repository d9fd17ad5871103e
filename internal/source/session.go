package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/spf13/afero"
)

// DefaultTimeout applies when [Options.Timeout] is zero.
const DefaultTimeout = 30 * time.Second

// Options configures a [Session] and the source built on top of it.
type Options struct {
	// Prefix is joined in front of URLs that do not start with "http".
	Prefix  string
	Headers map[string]string
	// Proxy is an http(s) or socks5 URL.
	Proxy            string
	Timeout          time.Duration
	Trace            bool
	BypassCloudflare bool
	// HTTPClient is reused instead of building a new one.
	HTTPClient *http.Client

	PageCacheSize int
	PageCacheTTL  time.Duration

	// CacheDir, CacheExpire and CacheFs configure on-disk memoization used by sources.
	CacheDir    string
	CacheExpire time.Duration
	CacheFs     afero.Fs

	Logger *log.Logger
}

// OptionsFromConfig builds [Options] from the [source] section of config,
// merging headers from the configured cURL file.
func OptionsFromConfig(cfg *shared.Config, logger *log.Logger) (Options, error) {
	opts := Options{
		Proxy:            cfg.Source.Proxy,
		Timeout:          cfg.Source.Timeout(),
		Trace:            cfg.Source.Trace,
		BypassCloudflare: cfg.Source.BypassCloudflare,
		PageCacheSize:    cfg.Source.PageCacheSize,
		PageCacheTTL:     cfg.Source.PageCacheTTL(),
		CacheDir:         cfg.Cache.Dir,
		CacheExpire:      cfg.Cache.Expire(),
		Logger:           logger,
	}

	if cfg.Source.CurlFile != "" {
		curl, err := shared.ParseCurlFile(cfg.Source.CurlFile)
		if err != nil {
			return opts, err
		}
		opts.Headers = make(map[string]string)
		for key, values := range curl.Header() {
			opts.Headers[key] = strings.Join(values, ", ")
		}
	}
	return opts, nil
}

// Session wraps a resty client with the headers, proxy and timeout every
// request to one site shares.
type Session struct {
	client *resty.Client
	prefix string
	trace  bool
	logger *log.Logger
	pages  *expirable.LRU[string, []byte]
}

// NewSession builds a session. Headers in defaults are overridden by opts.Headers.
func NewSession(opts Options, defaults map[string]string) (*Session, error) {
	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client.
		SetLogger(logger).
		SetTimeout(timeout).
		SetHeaders(defaults).
		SetHeaders(opts.Headers).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	if opts.Proxy != "" {
		if _, err := url.Parse(opts.Proxy); err != nil {
			return nil, fmt.Errorf("%w: proxy %q: %v", shared.ErrInvalidConfig, opts.Proxy, err)
		}
		client.SetProxy(opts.Proxy)
	}

	if opts.BypassCloudflare {
		transport := client.GetClient().Transport
		if transport == nil {
			transport = http.DefaultTransport.(*http.Transport).Clone()
		}
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(transport)
	}

	s := &Session{
		client: client,
		prefix: opts.Prefix,
		trace:  opts.Trace,
		logger: logger,
	}

	if opts.PageCacheSize > 0 {
		s.pages = expirable.NewLRU[string, []byte](opts.PageCacheSize, nil, opts.PageCacheTTL)
	}
	return s, nil
}

// Client exposes the underlying resty client.
func (s *Session) Client() *resty.Client { return s.client }

// Request describes one call made through [Session.Do].
type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Payload any
	// JSON marks the request and its response as application/json.
	JSON    bool
	Headers map[string]string
}

// Response is a successful reply.
type Response struct {
	Status int
	URL    string
	Header http.Header
	Body   []byte
}

// Text returns the trimmed body. ok is false when the body is empty or the literal null.
func (r *Response) Text() (text string, ok bool) {
	text = strings.TrimSpace(string(r.Body))
	if text == "" || text == "null" {
		return "", false
	}
	return text, true
}

// Decode unmarshals a JSON body into out. ok is false for an empty or null body.
func (r *Response) Decode(out any) (ok bool, err error) {
	text, ok := r.Text()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return true, fmt.Errorf("failed to decode response from %s: %w", r.URL, err)
	}
	return true, nil
}

// Document parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html from %s: %w", r.URL, err)
	}
	return doc, nil
}

// Resolve joins rawURL onto the session prefix unless it is already absolute.
func (s *Session) Resolve(rawURL string) string {
	if strings.HasPrefix(rawURL, "http") || s.prefix == "" {
		return rawURL
	}
	return strings.TrimRight(s.prefix, "/") + "/" + strings.TrimLeft(rawURL, "/")
}

// Do sends req. A non-2xx status is returned as [*Error].
func (s *Session) Do(ctx context.Context, req Request) (*Response, error) {
	target := s.Resolve(req.URL)
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	cacheable := s.pages != nil && method == http.MethodGet && !req.JSON
	key := cacheKey(target, req.Params)
	if cacheable {
		if body, ok := s.pages.Get(key); ok {
			s.logger.Debug("page cache hit", "url", key)
			return &Response{Status: http.StatusOK, URL: key, Body: body}, nil
		}
	}

	r := s.client.R().SetContext(ctx).SetHeaders(req.Headers)
	if len(req.Params) > 0 {
		r.SetQueryParamsFromValues(req.Params)
	}
	if req.JSON {
		r.SetHeader("Content-Type", "application/json").SetHeader("Accept", "application/json")
	}
	if req.Payload != nil {
		payload, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		r.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	if s.trace {
		s.logger.Debug("request", "method", method, "url", target, "params", req.Params.Encode(), "payload", req.Payload)
	}

	res, err := r.Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, target, err)
	}

	finalURL := target
	if raw := res.RawResponse; raw != nil && raw.Request != nil {
		finalURL = raw.Request.URL.String()
	}

	if s.trace {
		s.logger.Debug("response", "method", method, "url", finalURL, "status", res.StatusCode(), "headers", res.Header())
	}

	if !res.IsSuccess() {
		return nil, newError(res.StatusCode(), finalURL, res.Header())
	}

	out := &Response{Status: res.StatusCode(), URL: finalURL, Header: res.Header(), Body: res.Body()}
	if cacheable {
		s.pages.Add(key, out.Body)
	}
	return out, nil
}

func (s *Session) text(ctx context.Context, method, rawURL string, params url.Values, payload any) (string, error) {
	res, err := s.Do(ctx, Request{Method: method, URL: rawURL, Params: params, Payload: payload})
	if err != nil {
		return "", err
	}
	text, _ := res.Text()
	return text, nil
}

// Get returns the trimmed body of a GET request; empty for an empty or null body.
func (s *Session) Get(ctx context.Context, rawURL string, params url.Values) (string, error) {
	return s.text(ctx, http.MethodGet, rawURL, params, nil)
}

// Post sends payload as JSON and returns the trimmed body.
func (s *Session) Post(ctx context.Context, rawURL string, params url.Values, payload any) (string, error) {
	return s.text(ctx, http.MethodPost, rawURL, params, payload)
}

// Put sends payload as JSON and returns the trimmed body.
func (s *Session) Put(ctx context.Context, rawURL string, params url.Values, payload any) (string, error) {
	return s.text(ctx, http.MethodPut, rawURL, params, payload)
}

// Delete sends a DELETE request and returns the trimmed body.
func (s *Session) Delete(ctx context.Context, rawURL string, params url.Values, payload any) (string, error) {
	return s.text(ctx, http.MethodDelete, rawURL, params, payload)
}

// GetJSON decodes a JSON GET response into out. ok is false for an empty or null body.
func (s *Session) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) (bool, error) {
	res, err := s.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Params: params, JSON: true})
	if err != nil {
		return false, err
	}
	return res.Decode(out)
}

// Document fetches rawURL and parses it as HTML.
func (s *Session) Document(ctx context.Context, rawURL string, params url.Values) (*goquery.Document, error) {
	res, err := s.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Params: params})
	if err != nil {
		return nil, err
	}
	return res.Document()
}

// RemoteFileSize sends a HEAD request for rawURL and returns its
// Content-Length in unit ("B", "KB", "MB" or "GB"), rounded to two
// decimals. A response without Content-Length reports 0.
func (s *Session) RemoteFileSize(ctx context.Context, rawURL, unit string) (float64, error) {
	res, err := s.client.R().SetContext(ctx).Head(s.Resolve(rawURL))
	if err != nil {
		return 0, fmt.Errorf("%w: HEAD %s: %v", shared.ErrAPIRequest, rawURL, err)
	}

	if res.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("%w: HEAD %s returned %d", shared.ErrRemoteStatus, rawURL, res.StatusCode())
	}

	length := strings.TrimSpace(res.Header().Get("Content-Length"))
	if length == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(length, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: content length %q", shared.ErrInvalidSize, length)
	}

	if strings.EqualFold(unit, "B") || unit == "" {
		return float64(n), nil
	}
	return shared.ConvertBytes(n, unit, 2), nil
}

func cacheKey(target string, params url.Values) string {
	if len(params) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + params.Encode()
}
