package givehub

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Campaign represents a fundraising campaign with its monetary goal,
// progress, descriptive content, and associated media.
type Campaign struct {
	ID              int64        `json:"id"`
	Slug            string       `json:"slug,omitempty"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Emoji           string       `json:"emoji,omitempty"`
	Category        string       `json:"category"`
	Location        string       `json:"location,omitempty"`
	Tags            TagList      `json:"tags"`
	TargetAmount    int64        `json:"targetAmount"`
	CollectedAmount int64        `json:"collectedAmount"`
	DonationCount   int          `json:"donationCount"`
	Status          string       `json:"status"`
	IsFeatured      bool         `json:"isFeatured"`
	StartDate       time.Time    `json:"startDate"`
	Deadline        *time.Time   `json:"deadline,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	CreatedBy       *UserSummary `json:"createdBy,omitempty"`
	Media           []Media      `json:"media,omitempty"`
}

// Progress returns the funding progress as a whole percentage,
// clamped to 100. Campaigns with no target or nothing collected
// report 0 rather than failing on the division.
func (c Campaign) Progress() int {
	if c.CollectedAmount <= 0 || c.TargetAmount <= 0 {
		return 0
	}

	pct := math.Round(float64(c.CollectedAmount) / float64(c.TargetAmount) * 100)
	if pct > 100 {
		return 100
	}

	return int(pct)
}

// PrimaryMedia returns the media item flagged as primary. At most one
// item per campaign carries the flag; when none does, the item with the
// lowest order index is the fallback. Returns nil for campaigns without
// media.
func (c Campaign) PrimaryMedia() *Media {
	if len(c.Media) == 0 {
		return nil
	}

	fallback := 0
	for i, m := range c.Media {
		if m.IsPrimary {
			return &c.Media[i]
		}
		if m.OrderIndex < c.Media[fallback].OrderIndex {
			fallback = i
		}
	}

	return &c.Media[fallback]
}

// Media is a single image or video attached to a campaign. Content lives
// either at a remote URL or inline as a base64 data URI.
type Media struct {
	ID          int64  `json:"id"`
	MediaType   string `json:"mediaType"`
	URL         string `json:"url,omitempty"`
	Base64Image string `json:"base64Image,omitempty"`
	OrderIndex  int    `json:"orderIndex"`
	IsPrimary   bool   `json:"isPrimary"`
}

// Source returns the displayable content reference, preferring the
// inline base64 payload over the remote URL when both are present.
func (m Media) Source() string {
	if m.Base64Image != "" {
		return m.Base64Image
	}
	return m.URL
}

// UserSummary is the abbreviated creator record embedded in a campaign.
type UserSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// TagList is an ordered list of campaign tags. The backend is not
// consistent about the wire shape: tags arrive as a JSON array, as a
// JSON-encoded array inside a string, or as a single comma-delimited
// string. All three decode to the same canonical []string here so the
// ambiguity never leaks past the client boundary.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || string(data) == "null" {
		*t = nil
		return nil
	}

	if data[0] == '[' {
		var tags []string
		if err := json.Unmarshal(data, &tags); err != nil {
			return err
		}
		*t = tags
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = splitTags(raw)
	return nil
}

func (t TagList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func splitTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// A stringified JSON array ("[\"a\",\"b\"]") decodes directly.
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags
		}
	}

	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// SearchResponse is the transient result of a server-side campaign
// query. It is replaced wholesale on every search call and never
// persisted.
type SearchResponse struct {
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Data  []Campaign `json:"data"`
}

// CampaignDraft carries the fields a caller supplies when creating a
// campaign. Identity and bookkeeping fields are assigned server-side.
type CampaignDraft struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Emoji        string     `json:"emoji,omitempty"`
	Category     string     `json:"category"`
	Location     string     `json:"location,omitempty"`
	Tags         TagList    `json:"tags"`
	TargetAmount int64      `json:"targetAmount"`
	Status       string     `json:"status,omitempty"`
	IsFeatured   bool       `json:"isFeatured,omitempty"`
	StartDate    time.Time  `json:"startDate"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// CampaignPatch is a partial update. Only the fields a caller sets reach
// the wire; the backend leaves absent fields untouched.
type CampaignPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Emoji        *string    `json:"emoji,omitempty"`
	Category     *string    `json:"category,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Tags         *TagList   `json:"tags,omitempty"`
	TargetAmount *int64     `json:"targetAmount,omitempty"`
	Status       *string    `json:"status,omitempty"`
	IsFeatured   *bool      `json:"isFeatured,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// ImageUpload is an in-memory image attached to a campaign, either as
// the multipart file on create or encoded to base64 for the media
// endpoint.
type ImageUpload struct {
	Name string
	Data []byte
}
