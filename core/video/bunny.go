package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BunnyConfig describes one Bunny Stream video library.
type BunnyConfig struct {
	BaseURL   string
	LibraryID string
	APIKey    string
	CDNHost   string
	PageSize  int
}

// BunnyClient reads the video list of a Bunny Stream library.
type BunnyClient struct {
	http *http.Client
	cfg  BunnyConfig
}

func NewBunnyClient(client *http.Client, cfg BunnyConfig) *BunnyClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &BunnyClient{http: client, cfg: cfg}
}

type bunnyPage struct {
	TotalItems   int          `json:"totalItems"`
	CurrentPage  int          `json:"currentPage"`
	ItemsPerPage int          `json:"itemsPerPage"`
	Items        []bunnyVideo `json:"items"`
}

type bunnyVideo struct {
	GUID              string `json:"guid"`
	Title             string `json:"title"`
	Length            int    `json:"length"`
	DateUploaded      string `json:"dateUploaded"`
	ThumbnailFileName string `json:"thumbnailFileName"`
	Status            int    `json:"status"`
}

// The API omits the zone on upload dates; they are UTC.
var uploadLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}

func parseUploaded(raw string) time.Time {
	for _, layout := range uploadLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FetchVideos walks every page of the library.
func (c *BunnyClient) FetchVideos(ctx context.Context) (Listing, error) {
	var out Listing
	for page := 1; ; page++ {
		p, err := c.fetchPage(ctx, page)
		if err != nil {
			return Listing{}, err
		}
		if page == 1 {
			out.TotalCount = p.TotalItems
			out.CurrentPage = p.CurrentPage
		}

		for _, bv := range p.Items {
			out.Videos = append(out.Videos, c.toVideo(bv))
		}

		if len(p.Items) == 0 || len(out.Videos) >= p.TotalItems {
			break
		}
	}

	if out.Videos == nil {
		out.Videos = []Video{}
	}
	return out, nil
}

func (c *BunnyClient) toVideo(bv bunnyVideo) Video {
	v := Video{
		ID:           bv.GUID,
		Title:        bv.Title,
		Length:       bv.Length,
		DateUploaded: parseUploaded(bv.DateUploaded),
		Status:       bv.Status,
	}
	if bv.ThumbnailFileName != "" && c.cfg.CDNHost != "" {
		u := url.URL{Scheme: "https", Host: c.cfg.CDNHost, Path: "/" + bv.GUID + "/" + bv.ThumbnailFileName}
		v.Thumbnail = u.String()
	}
	return v
}

func (c *BunnyClient) fetchPage(ctx context.Context, page int) (bunnyPage, error) {
	endpoint := fmt.Sprintf("%s/library/%s/videos", c.cfg.BaseURL, url.PathEscape(c.cfg.LibraryID))

	q := make(url.Values)
	q.Set("page", strconv.Itoa(page))
	q.Set("itemsPerPage", strconv.Itoa(c.cfg.PageSize))
	q.Set("orderBy", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return bunnyPage{}, err
	}
	req.Header.Set("AccessKey", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return bunnyPage{}, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return bunnyPage{}, &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	var p bunnyPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return bunnyPage{}, &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decoding page %d: %w", page, err)}
	}
	return p, nil
}
