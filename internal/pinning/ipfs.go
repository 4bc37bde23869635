package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultIPFSAPIURL points at the RPC API of a local kubo node.
	// Filebase exposes the same calls under https://api.filebase.io/v1/ipfs.
	DefaultIPFSAPIURL = "http://127.0.0.1:5001/api/v0"
)

type IPFSOpts func(c *ipfsConfig)

type ipfsConfig struct {
	apiURL  string
	token   string
	pin     bool
	timeout time.Duration
}

func WithIPFSAPIURL(apiURL string) IPFSOpts {
	return func(c *ipfsConfig) {
		c.apiURL = apiURL
	}
}

// WithIPFSToken sends a bearer token, as required by hosted nodes.
func WithIPFSToken(token string) IPFSOpts {
	return func(c *ipfsConfig) {
		c.token = token
	}
}

// WithPinOnAdd controls the pin flag of the add call.
func WithPinOnAdd(pin bool) IPFSOpts {
	return func(c *ipfsConfig) {
		c.pin = pin
	}
}

func WithIPFSTimeout(timeout time.Duration) IPFSOpts {
	return func(c *ipfsConfig) {
		c.timeout = timeout
	}
}

// IPFSClient uses the HTTP RPC API of an IPFS node.
type IPFSClient struct {
	cfg        *ipfsConfig
	httpClient *http.Client
}

func NewIPFSClient(opts ...IPFSOpts) *IPFSClient {
	cfg := &ipfsConfig{
		apiURL:  DefaultIPFSAPIURL,
		pin:     true,
		timeout: defaultTimeout * time.Second,
	}
	for _, o := range opts {
		o(cfg)
	}
	cfg.apiURL = strings.TrimRight(cfg.apiURL, "/")

	return &IPFSClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.timeout},
	}
}

// addEntry is one line of the newline delimited JSON answer of the add call.
type addEntry struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

func (c *IPFSClient) Name() string {
	return "ipfs"
}

func (c *IPFSClient) Upload(ctx context.Context, path string) (*Pin, error) {
	body, contentType, err := fileBody("file", path)
	if err != nil {
		return nil, err
	}
	return c.add(ctx, filepath.Base(path), body, contentType)
}

func (c *IPFSClient) UploadJSON(ctx context.Context, name string, content []byte) (*Pin, error) {
	body, contentType, err := multipartBody(formFile{
		field:       "file",
		filename:    name,
		contentType: "application/json",
		content:     bytes.NewReader(content),
	})
	if err != nil {
		return nil, NewErrMalformed(0, fmt.Errorf("failed to encode %s: %w", name, err))
	}
	return c.add(ctx, name, body, contentType)
}

func (c *IPFSClient) Pin(ctx context.Context, cid string, _ string) error {
	params := url.Values{}
	params.Set("arg", cid)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.apiURL+"/pin/add?"+params.Encode(), nil)
	if err != nil {
		return NewErrMalformed(0, fmt.Errorf("failed to create request: %w", err))
	}
	c.authorize(req)

	_, err = doRequest(c.httpClient, req)
	return err
}

func (c *IPFSClient) add(ctx context.Context, name string, body io.Reader, contentType string) (*Pin, error) {
	params := url.Values{}
	params.Set("pin", strconv.FormatBool(c.cfg.pin))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.apiURL+"/add?"+params.Encode(), body)
	if err != nil {
		return nil, NewErrMalformed(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	respBody, err := doRequest(c.httpClient, req)
	if err != nil {
		return nil, err
	}

	entry, err := lastAddEntry(respBody)
	if err != nil {
		return nil, NewErrMalformed(http.StatusOK, err)
	}

	size, _ := strconv.ParseInt(entry.Size, 10, 64)
	return &Pin{
		Name: name,
		CID:  entry.Hash,
		Size: size,
	}, nil
}

func (c *IPFSClient) authorize(req *http.Request) {
	if c.cfg.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.token)
	}
}

// lastAddEntry returns the final entry of the add answer, which describes the root object.
func lastAddEntry(body []byte) (*addEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	var last *addEntry
	for {
		var entry addEntry
		if err := dec.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode add response: %w", err)
		}
		last = &entry
	}

	if last == nil || last.Hash == "" {
		return nil, errors.New("add response carries no hash")
	}
	return last, nil
}
