package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultPinataBaseURL = "https://api.pinata.cloud"

	pinFileEndpoint = "/pinning/pinFileToIPFS"
	pinJSONEndpoint = "/pinning/pinJSONToIPFS"
	pinHashEndpoint = "/pinning/pinByHash"
)

type PinataOpts func(c *pinataConfig)

type pinataConfig struct {
	baseURL   string
	jwt       string
	apiKey    string
	apiSecret string
	timeout   time.Duration
}

func WithPinataBaseURL(baseURL string) PinataOpts {
	return func(c *pinataConfig) {
		c.baseURL = baseURL
	}
}

// WithJWT authenticates with a bearer token. It takes precedence over API keys.
func WithJWT(jwt string) PinataOpts {
	return func(c *pinataConfig) {
		c.jwt = jwt
	}
}

func WithAPIKey(key, secret string) PinataOpts {
	return func(c *pinataConfig) {
		c.apiKey = key
		c.apiSecret = secret
	}
}

func WithPinataTimeout(timeout time.Duration) PinataOpts {
	return func(c *pinataConfig) {
		c.timeout = timeout
	}
}

// PinataClient talks to the Pinata pinning API.
type PinataClient struct {
	cfg        *pinataConfig
	httpClient *http.Client
}

func NewPinataClient(opts ...PinataOpts) (*PinataClient, error) {
	cfg := &pinataConfig{
		baseURL: DefaultPinataBaseURL,
		timeout: defaultTimeout * time.Second,
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.jwt == "" && (cfg.apiKey == "" || cfg.apiSecret == "") {
		return nil, errors.New("provide a pinata jwt or both pinata api key and api secret")
	}
	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")

	return &PinataClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.timeout},
	}, nil
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinataPinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinJSONRequest struct {
	PinataContent  json.RawMessage `json:"pinataContent"`
	PinataMetadata pinataMetadata  `json:"pinataMetadata"`
}

type pinByHashRequest struct {
	HashToPin      string         `json:"hashToPin"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
}

func (p *PinataClient) Name() string {
	return "pinata"
}

func (p *PinataClient) Upload(ctx context.Context, path string) (*Pin, error) {
	metadata, err := json.Marshal(pinataMetadata{Name: stem(path)})
	if err != nil {
		return nil, NewErrMalformed(0, err)
	}

	body, contentType, err := fileBody("file", path, formField{name: "pinataMetadata", value: string(metadata)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.baseURL+pinFileEndpoint, body)
	if err != nil {
		return nil, NewErrMalformed(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	return p.pin(req, filepath.Base(path))
}

func (p *PinataClient) UploadJSON(ctx context.Context, name string, body []byte) (*Pin, error) {
	if !json.Valid(body) {
		return nil, NewErrMalformed(0, fmt.Errorf("content of %s is not valid json", name))
	}

	payload, err := json.Marshal(pinJSONRequest{
		PinataContent:  body,
		PinataMetadata: pinataMetadata{Name: name},
	})
	if err != nil {
		return nil, NewErrMalformed(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.baseURL+pinJSONEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, NewErrMalformed(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	return p.pin(req, name)
}

func (p *PinataClient) Pin(ctx context.Context, cid string, name string) error {
	payload, err := json.Marshal(pinByHashRequest{
		HashToPin:      cid,
		PinataMetadata: pinataMetadata{Name: name},
	})
	if err != nil {
		return NewErrMalformed(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.baseURL+pinHashEndpoint, bytes.NewReader(payload))
	if err != nil {
		return NewErrMalformed(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	_, err = doRequest(p.httpClient, req)
	return err
}

func (p *PinataClient) pin(req *http.Request, name string) (*Pin, error) {
	p.authorize(req)

	body, err := doRequest(p.httpClient, req)
	if err != nil {
		return nil, err
	}

	var resp pinataPinResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewErrMalformed(http.StatusOK, fmt.Errorf("failed to decode response: %w", err))
	}
	if resp.IpfsHash == "" {
		return nil, NewErrMalformed(http.StatusOK, errors.New("response carries no IpfsHash"))
	}

	return &Pin{
		Name:      name,
		CID:       resp.IpfsHash,
		Size:      resp.PinSize,
		Timestamp: resp.Timestamp,
	}, nil
}

func (p *PinataClient) authorize(req *http.Request) {
	if p.cfg.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.jwt)
		return
	}
	req.Header.Set("pinata_api_key", p.cfg.apiKey)
	req.Header.Set("pinata_secret_api_key", p.cfg.apiSecret)
}
