package middleware

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/MrEthical07/adminauth/xss"
)

// XSSConfig controls which requests are sanitized.
type XSSConfig struct {
	Enabled bool
	// Excludes are regular expressions anchored at the start of the path.
	// A matching request is left untouched.
	Excludes []string
	// URLPatterns limit sanitizing to matching paths. Patterns use servlet
	// style: "/system/*" (prefix), "*.json" (extension), "/*" (everything) or
	// an exact path. Empty means every path.
	URLPatterns []string

	// OnSanitize is called once for every request whose input was rewritten.
	OnSanitize func()
	Logger     *zap.Logger
}

type xssFilter struct {
	cfg      XSSConfig
	excludes []*regexp.Regexp
	patterns []func(string) bool
	logger   *zap.Logger
}

// NewXSS compiles cfg and returns the sanitizing middleware. Query,
// urlencoded and multipart form values are escaped and trimmed; JSON bodies
// have every string value escaped. Other bodies pass through. A disabled config yields
// a pass-through middleware.
func NewXSS(cfg XSSConfig) (func(http.Handler) http.Handler, error) {
	f := &xssFilter{cfg: cfg, logger: cfg.Logger}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}

	for _, p := range cfg.Excludes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile("^" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid xss exclude %q: %w", p, err)
		}
		f.excludes = append(f.excludes, re)
	}
	for _, p := range cfg.URLPatterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f.patterns = append(f.patterns, compileURLPattern(p))
	}

	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	return f.middleware, nil
}

func compileURLPattern(p string) func(string) bool {
	switch {
	case p == "/*" || p == "*":
		return func(string) bool { return true }
	case strings.HasSuffix(p, "/*"):
		dir := strings.TrimSuffix(p, "/*")
		return func(path string) bool {
			return path == dir || strings.HasPrefix(path, dir+"/")
		}
	case strings.HasPrefix(p, "*."):
		ext := p[1:]
		return func(path string) bool { return strings.HasSuffix(path, ext) }
	default:
		return func(path string) bool { return path == p }
	}
}

func (f *xssFilter) applies(path string) bool {
	if len(f.patterns) > 0 {
		matched := false
		for _, m := range f.patterns {
			if m(path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range f.excludes {
		if re.MatchString(path) {
			return false
		}
	}
	return true
}

func (f *xssFilter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.applies(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		r, changed := f.sanitize(r)
		if r.MultipartForm != nil {
			// The server only cleans up the form of the request it created.
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
		if changed {
			f.logger.Debug("request input escaped", zap.String("path", r.URL.Path))
			if f.cfg.OnSanitize != nil {
				f.cfg.OnSanitize()
			}
		}
		next.ServeHTTP(w, r)
	})
}

// sanitize escapes query and form values. url.ParseQuery keeps every
// well-formed pair when it reports an error, and so does Request.ParseForm,
// so the valid pairs are escaped even when the raw input has a bad one.
func (f *xssFilter) sanitize(r *http.Request) (*http.Request, bool) {
	changed := false

	var query url.Values
	if r.URL.RawQuery != "" {
		q, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			f.logger.Debug("malformed query pair dropped", zap.String("path", r.URL.Path), zap.Error(err))
		}
		var c bool
		query, c = cleanValues(q)
		if c {
			r = r.WithContext(r.Context())
			u := *r.URL
			u.RawQuery = query.Encode()
			r.URL = &u
			changed = true
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return r, changed
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		data, err := readBody(r)
		if err != nil {
			return r, changed
		}
		out, c, ok := xss.EscapeJSON(data)
		if !ok || !c {
			return withBody(r, data), changed
		}
		return withBody(r, out), true

	case "application/x-www-form-urlencoded":
		if !hasFormBody(r.Method) {
			return r, changed
		}
		data, err := readBody(r)
		if err != nil {
			return r, changed
		}
		post, err := url.ParseQuery(string(data))
		if err != nil {
			f.logger.Debug("malformed form pair dropped", zap.String("path", r.URL.Path), zap.Error(err))
		}
		post, c := cleanValues(post)
		if !c {
			return withBody(r, data), changed
		}

		r = withBody(r, []byte(post.Encode()))
		if query == nil {
			query, _ = url.ParseQuery(r.URL.RawQuery)
		}
		r.PostForm = post
		r.Form = mergeValues(post, query)
		return r, true

	case "multipart/form-data":
		if !hasFormBody(r.Method) {
			return r, changed
		}
		data, err := readBody(r)
		if err != nil {
			return r, changed
		}
		r = withBody(r, data)
		// A malformed query is reported here too, after the body was parsed.
		err = r.ParseMultipartForm(multipartMaxMemory)
		if r.MultipartForm == nil {
			f.logger.Debug("multipart form not parsed", zap.String("path", r.URL.Path), zap.Error(err))
			return withBody(r, data), changed
		}
		// The parsed form is what handlers read, so the raw body is
		// rewound but left as sent. File parts are not touched.
		value, c := cleanValues(r.MultipartForm.Value)
		r.MultipartForm.Value = value
		r.PostForm, _ = cleanValues(r.PostForm)
		r.Form, _ = cleanValues(r.Form)
		r = withBody(r, data)
		return r, changed || c
	}
	return r, changed
}

// multipartMaxMemory matches the net/http default for FormValue.
const multipartMaxMemory = 32 << 20

func hasFormBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func readBody(r *http.Request) ([]byte, error) {
	if data := BodyBytes(r); data != nil {
		return data, nil
	}
	data, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	return data, err
}

func cleanValues(in url.Values) (url.Values, bool) {
	out := make(url.Values, len(in))
	changed := false
	for k, vs := range in {
		cleaned := make([]string, len(vs))
		for i, v := range vs {
			cleaned[i] = xss.Clean(v)
			if cleaned[i] != v {
				changed = true
			}
		}
		out[k] = cleaned
	}
	return out, changed
}

// mergeValues orders body values before query values, as Request.ParseForm does.
func mergeValues(post, query url.Values) url.Values {
	out := make(url.Values, len(post)+len(query))
	for k, vs := range post {
		out[k] = append(out[k], vs...)
	}
	for k, vs := range query {
		out[k] = append(out[k], vs...)
	}
	return out
}
