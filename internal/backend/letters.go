package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/domain"
)

// ErrUnknownChannel is returned for a channel with no issuance endpoints.
var ErrUnknownChannel = errors.New("unknown issuance channel")

type channelPaths struct {
	create  string
	preview string
}

var channels = map[catalog.Channel]channelPaths{
	catalog.ChannelCode:        {create: "/api/codeletters", preview: "/api/codeletters/preview"},
	catalog.ChannelClient:      {create: "/api/clientletters", preview: "/api/clientletters/preview"},
	catalog.ChannelCertificate: {create: "/api/certificates", preview: "/api/certificates/preview"},
}

func pathsFor(ch catalog.Channel) (channelPaths, error) {
	p, ok := channels[ch]
	if !ok {
		return channelPaths{}, fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
	return p, nil
}

// Preview renders a draft of payload without persisting it.
func (c *Client) Preview(ctx context.Context, ch catalog.Channel, payload map[string]any) (*Document, error) {
	p, err := pathsFor(ch)
	if err != nil {
		return nil, err
	}
	return c.doBinary(ctx, http.MethodPost, p.preview, payload)
}

// Create persists payload, triggers the recipient notification and returns
// the rendered document with its server-assigned ID.
func (c *Client) Create(ctx context.Context, ch catalog.Channel, payload map[string]any) (*Document, error) {
	p, err := pathsFor(ch)
	if err != nil {
		return nil, err
	}
	return c.doBinary(ctx, http.MethodPost, p.create, payload)
}

// ListCertificates handles GET /api/certificates
func (c *Client) ListCertificates(ctx context.Context) ([]domain.Certificate, error) {
	return listJSON[domain.Certificate](ctx, c, "/api/certificates")
}

// ListCodeLetters handles GET /api/codeletters
func (c *Client) ListCodeLetters(ctx context.Context) ([]domain.Certificate, error) {
	return listJSON[domain.Certificate](ctx, c, "/api/codeletters")
}

// Download fetches one issued certificate as PDF or JPG.
func (c *Client) Download(ctx context.Context, id string, format domain.DownloadFormat) (*Document, error) {
	path := "/api/certificates/download/" + url.PathEscape(id)
	switch format {
	case domain.FormatPDF, "":
	case domain.FormatJPG:
		path += "/jpg"
	default:
		return nil, &RequestError{Op: "download " + id, Err: fmt.Errorf("unsupported format %q", format)}
	}
	return c.doBinary(ctx, http.MethodGet, path, nil)
}

// DownloadLetter handles GET /api/letters/:id/download.pdf
func (c *Client) DownloadLetter(ctx context.Context, id string) (*Document, error) {
	return c.doBinary(ctx, http.MethodGet, "/api/letters/"+url.PathEscape(id)+"/download.pdf", nil)
}

// UpdateLetterStatus handles PUT /api/letters/:id/status
func (c *Client) UpdateLetterStatus(ctx context.Context, id string, update domain.StatusUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/api/letters/"+url.PathEscape(id)+"/status", update, nil)
}

type bulkCreateRequest struct {
	Certificates []domain.BulkCertificate `json:"certificates"`
}

// BulkCreate handles POST /api/certificates/bulk
func (c *Client) BulkCreate(ctx context.Context, rows []domain.BulkCertificate) (*domain.BulkCreateResponse, error) {
	var out domain.BulkCreateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/certificates/bulk", bulkCreateRequest{Certificates: rows}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type bulkDownloadRequest struct {
	IDs []string `json:"ids"`
}

// BulkDownload fetches every id as a single zip archive.
func (c *Client) BulkDownload(ctx context.Context, ids []string) (*Document, error) {
	return c.doBinary(ctx, http.MethodPost, "/api/certificates/bulk/download", bulkDownloadRequest{IDs: ids})
}
