package clientinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	InternalLocation = "Internal IP"
	UnknownLocation  = "Unknown location"
)

// Locator maps an IP address to a display location.
type Locator interface {
	Locate(ctx context.Context, ip string) string
}

// StaticLocator labels internal addresses and reports everything else as
// unknown. It performs no I/O.
type StaticLocator struct{}

func (StaticLocator) Locate(_ context.Context, ip string) string {
	if IsInternal(ip) {
		return InternalLocation
	}
	return UnknownLocation
}

// DefaultLookupURL is a public IP lookup service answering in GBK-encoded
// JSON of the form {"pro":"...","city":"..."}.
const DefaultLookupURL = "http://whois.pconline.com.cn/ipJson.jsp"

// HTTPLocator queries a remote lookup service for public addresses.
type HTTPLocator struct {
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
	// GBK marks responses encoded in GBK rather than UTF-8.
	GBK bool
}

// NewHTTPLocator returns a locator for DefaultLookupURL with the given
// request timeout.
func NewHTTPLocator(timeout time.Duration, logger *zap.Logger) *HTTPLocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPLocator{
		BaseURL: DefaultLookupURL,
		Client:  &http.Client{Timeout: timeout},
		Logger:  logger,
		GBK:     true,
	}
}

type lookupResponse struct {
	Province string `json:"pro"`
	City     string `json:"city"`
}

func (l *HTTPLocator) Locate(ctx context.Context, ip string) string {
	if IsInternal(ip) {
		return InternalLocation
	}
	loc, err := l.lookup(ctx, ip)
	if err != nil {
		l.Logger.Warn("ip location lookup failed", zap.String("ip", ip), zap.Error(err))
		return UnknownLocation
	}
	return loc
}

func (l *HTTPLocator) lookup(ctx context.Context, ip string) (string, error) {
	q := url.Values{"ip": {ip}, "json": {"true"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup status %d", resp.StatusCode)
	}

	var body io.Reader = io.LimitReader(resp.Body, 64<<10)
	if l.GBK {
		body = transform.NewReader(body, simplifiedchinese.GBK.NewDecoder())
	}

	var out lookupResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return "", err
	}
	loc := strings.TrimSpace(out.Province + " " + out.City)
	if loc == "" {
		return UnknownLocation, nil
	}
	return loc, nil
}
