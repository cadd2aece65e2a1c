package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/xcheck/internal/domain"
)

const (
	DefaultPinataEndpoint = "https://api.pinata.cloud"
	defaultUploadTimeout  = 30 * time.Second
)

// Pinata pins blobs through the Pinata pinning API.
type Pinata struct {
	client   *http.Client
	endpoint string
	jwt      string
	gateway  string
}

func NewPinata(endpoint, jwt, gateway string) *Pinata {
	if endpoint == "" {
		endpoint = DefaultPinataEndpoint
	}
	if gateway == "" {
		gateway = domain.DefaultGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}

	httpClient := &http.Client{
		Timeout: defaultUploadTimeout,
	}
	p := &Pinata{
		client:   httpClient,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		jwt:      jwt,
		gateway:  gateway,
	}
	httpClient.Transport = p
	return p
}

func (p *Pinata) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+p.jwt)
	return http.DefaultTransport.RoundTrip(req)
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload pins data as a file called name and returns its content id.
func (p *Pinata) Upload(ctx context.Context, name string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Pinata.Upload")
	defer span.End()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", errors.Wrap(err, "build upload")
	}
	if _, err := part.Write(data); err != nil {
		return "", errors.Wrap(err, "build upload")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "build upload")
	}

	url := p.endpoint + "/pinning/pinFileToIPFS"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		span.RecordError(err)
		return "", err
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}
	if pinned.IpfsHash == "" {
		return "", errors.New("pinata returned no content id")
	}

	slog.DebugContext(
		ctx, "pinned content",
		slog.String("name", name),
		slog.String("cid", pinned.IpfsHash),
		slog.Int64("size", pinned.PinSize),
		slog.String("module", "pinata"),
	)

	return pinned.IpfsHash, nil
}

// URI is the public gateway address of cid.
func (p *Pinata) URI(cid string) string {
	return p.gateway + cid
}
