package store

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// HTTPStoreConfig holds HTTP store configuration.
type HTTPStoreConfig struct {
	// BaseURL is the directory-style URL objects live under,
	// e.g. "https://drop.example.com/tasks/".
	BaseURL string

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration

	// BearerToken is sent as "Authorization: Bearer <token>" when set.
	BearerToken string

	// Username and Password enable basic auth when Username is set.
	Username string
	Password string

	// Client overrides the default HTTP client (optional).
	Client *http.Client
}

// DefaultHTTPStoreConfig returns configuration with sensible defaults.
func DefaultHTTPStoreConfig() HTTPStoreConfig {
	return HTTPStoreConfig{
		Timeout: 30 * time.Second,
	}
}

// HTTPStore implements Store against a remote HTTP server. Objects are
// uploaded with PUT and removed with DELETE; the listing is obtained by
// parsing anchor hrefs out of the HTML index served at the base URL.
type HTTPStore struct {
	base   *url.URL
	client *http.Client
	config HTTPStoreConfig
	closed atomic.Bool
}

// NewHTTPStore creates an HTTP-backed store.
func NewHTTPStore(cfg HTTPStoreConfig) (*HTTPStore, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPStoreConfig().Timeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base URL %s", cfg.BaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported scheme %q in base URL", base.Scheme)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTPStore{base: base, client: client, config: cfg}, nil
}

func (s *HTTPStore) objectURL(name string) string {
	return s.base.JoinPath(name).String()
}

func (s *HTTPStore) do(method, rawURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, rawURL)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	if s.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.BearerToken)
	} else if s.config.Username != "" {
		req.SetBasicAuth(s.config.Username, s.config.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, rawURL)
	}
	return resp, nil
}

// Put uploads an object. Any 2xx response is a success.
func (s *HTTPStore) Put(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	resp, err := s.do(http.MethodPut, s.objectURL(name), bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("put %s: unexpected status %s", name, resp.Status)
	}
	return nil
}

// Get downloads an object.
func (s *HTTPStore) Get(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	resp, err := s.do(http.MethodGet, s.objectURL(name), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "read object %s", name)
		}
		return data, nil
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrNotFound
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("get %s: unexpected status %s", name, resp.Status)
	}
}

// List fetches the HTML index at the base URL and extracts object names
// from its anchor hrefs. Directory links and navigation links are skipped.
func (s *HTTPStore) List() ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	resp, err := s.do(http.MethodGet, s.base.String(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("list: unexpected status %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse index")
	}

	var names []string
	collectAnchorNames(doc, &names)
	return names, nil
}

// collectAnchorNames walks the parsed index and appends one object name per
// usable anchor. Hrefs are URL-decoded; only the final path segment counts,
// so absolute and relative listings behave the same.
func collectAnchorNames(n *html.Node, names *[]string) {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key != "href" {
				continue
			}
			if name, ok := anchorObjectName(attr.Val); ok {
				*names = append(*names, name)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectAnchorNames(c, names)
	}
}

func anchorObjectName(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	// Sort/navigation links carry only a query or fragment.
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "", false
	}
	name := path.Base(u.Path)
	if name == "." || name == ".." || name == "/" {
		return "", false
	}
	return name, true
}

// Delete removes an object. The server must answer 204 for a completed
// delete; 404 means the object is already gone and is not an error.
func (s *HTTPStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	resp, err := s.do(http.MethodDelete, s.objectURL(name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return errors.Errorf("delete %s: unexpected status %s", name, resp.Status)
	}
}

// Close shuts down the store.
func (s *HTTPStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.client.CloseIdleConnections()
	return nil
}
