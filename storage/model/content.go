package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentBase holds the columns every content resource shares
type ContentBase struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-" msgpack:"-"`

	Title  string `gorm:"size:255;not null" json:"title"`
	Status Status `gorm:"index;not null;default:0" json:"status"`
}

// Base gives access to the shared columns
func (b *ContentBase) Base() *ContentBase {
	return b
}

func (b *ContentBase) validate() error {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return ValidationError("title is required")
	}
	if !b.Status.Valid() {
		return ValidationError("invalid status")
	}
	return nil
}

// Validate implements the Content interface
func (b *ContentBase) Validate() error {
	return b.validate()
}

// Protection holds content protection flags. They are stored and returned to
// clients but not enforced by the server.
type Protection struct {
	Watermark     bool `json:"watermark"`
	AllowDownload bool `json:"allow_download"`
	AllowCopy     bool `json:"allow_copy"`
	AllowPrint    bool `json:"allow_print"`
}

// Gated is embedded by resources that carry a subscription tier and
// protection flags
type Gated struct {
	RequiredTier SubscriptionTier `gorm:"size:16;not null;default:free;index" json:"required_tier"`
	Protection   Protection       `gorm:"embedded;embeddedPrefix:protection_" json:"protection"`
}

func (g *Gated) validate() error {
	if g.RequiredTier == "" {
		g.RequiredTier = TierFree
	}
	if !g.RequiredTier.Valid() {
		return ValidationError("invalid required_tier")
	}
	return nil
}

// Content is implemented by every content resource model
type Content interface {
	Base() *ContentBase
	Validate() error
}

// TierGated is implemented by content resources that have a required tier
type TierGated interface {
	Content
	tierGated()
}

func (*Gated) tierGated() {}

// Slugged is implemented by content resources with a unique slug
type Slugged interface {
	SlugKey() string
}

// Course is a course in the catalogue
type Course struct {
	ContentBase `gorm:"embedded"`
	Gated       `gorm:"embedded"`

	Slug            string                      `gorm:"uniqueIndex;size:191;not null" json:"slug"`
	Summary         string                      `json:"summary"`
	Body            string                      `gorm:"type:text" json:"body"`
	CoverImageURL   string                      `json:"cover_image_url"`
	Instructor      string                      `json:"instructor"`
	DurationMinutes int                         `json:"duration_minutes"`
	Price           int64                       `json:"price"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
}

// SlugKey implements the Slugged interface
func (c *Course) SlugKey() string {
	return c.Slug
}

// Validate implements the Content interface
func (c *Course) Validate() error {
	if err := c.ContentBase.validate(); err != nil {
		return err
	}
	c.Slug = strings.TrimSpace(c.Slug)
	if c.Slug == "" {
		return ValidationError("slug is required")
	}
	if c.DurationMinutes < 0 || c.Price < 0 {
		return ValidationError("duration_minutes and price must not be negative")
	}
	return c.Gated.validate()
}

// Workshop is an in-person or online workshop users can register for
type Workshop struct {
	ContentBase `gorm:"embedded"`
	Gated       `gorm:"embedded"`

	Summary       string     `json:"summary"`
	Body          string     `gorm:"type:text" json:"body"`
	CoverImageURL string     `json:"cover_image_url"`
	Instructor    string     `json:"instructor"`
	StartsAt      *time.Time `json:"starts_at"`
	Location      string     `json:"location"`
	// Capacity limits the number of active registrations; 0 means unlimited
	Capacity int   `json:"capacity"`
	Price    int64 `json:"price"`
}

// Validate implements the Content interface
func (w *Workshop) Validate() error {
	if err := w.ContentBase.validate(); err != nil {
		return err
	}
	if w.Capacity < 0 || w.Price < 0 {
		return ValidationError("capacity and price must not be negative")
	}
	return w.Gated.validate()
}

// Webinar is a live online session with an optional recording
type Webinar struct {
	ContentBase `gorm:"embedded"`
	Gated       `gorm:"embedded"`

	Summary       string     `json:"summary"`
	Body          string     `gorm:"type:text" json:"body"`
	CoverImageURL string     `json:"cover_image_url"`
	Presenter     string     `json:"presenter"`
	StartsAt      *time.Time `json:"starts_at"`
	JoinURL       string     `json:"join_url"`
	RecordingURL  string     `json:"recording_url"`
}

// Validate implements the Content interface
func (w *Webinar) Validate() error {
	if err := w.ContentBase.validate(); err != nil {
		return err
	}
	return w.Gated.validate()
}

// Magazine is a magazine issue
type Magazine struct {
	ContentBase `gorm:"embedded"`
	Gated       `gorm:"embedded"`

	IssueNumber   int        `gorm:"index" json:"issue_number"`
	Summary       string     `json:"summary"`
	CoverImageURL string     `json:"cover_image_url"`
	PDFURL        string     `json:"pdf_url"`
	PublishedAt   *time.Time `json:"published_at"`
}

// Validate implements the Content interface
func (m *Magazine) Validate() error {
	if err := m.ContentBase.validate(); err != nil {
		return err
	}
	if m.IssueNumber < 0 {
		return ValidationError("issue_number must not be negative")
	}
	return m.Gated.validate()
}

// Article is an article, optionally part of a magazine issue
type Article struct {
	ContentBase `gorm:"embedded"`
	Gated       `gorm:"embedded"`

	MagazineID    *uint                       `gorm:"index" json:"magazine_id,omitempty"`
	Author        string                      `json:"author"`
	Summary       string                      `json:"summary"`
	Body          string                      `gorm:"type:text" json:"body"`
	CoverImageURL string                      `json:"cover_image_url"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
}

// Validate implements the Content interface
func (a *Article) Validate() error {
	if err := a.ContentBase.validate(); err != nil {
		return err
	}
	return a.Gated.validate()
}

// Document is an archive post with an attached file
type Document struct {
	ContentBase `gorm:"embedded"`
	Gated       `gorm:"embedded"`

	Category string `gorm:"index;size:100" json:"category"`
	Summary  string `json:"summary"`
	Body     string `gorm:"type:text" json:"body"`
	FileURL  string `json:"file_url"`
}

// Validate implements the Content interface
func (d *Document) Validate() error {
	if err := d.ContentBase.validate(); err != nil {
		return err
	}
	return d.Gated.validate()
}

// EducationalVideo is a video lesson, optionally attached to a course
type EducationalVideo struct {
	ContentBase `gorm:"embedded"`
	Gated       `gorm:"embedded"`

	CourseID        *uint  `gorm:"index" json:"course_id,omitempty"`
	Description     string `gorm:"type:text" json:"description"`
	VideoURL        string `json:"video_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Validate implements the Content interface
func (v *EducationalVideo) Validate() error {
	if err := v.ContentBase.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(v.VideoURL) == "" {
		return ValidationError("video_url is required")
	}
	return v.Gated.validate()
}

// MediaItem is an entry of the media library, usually created by an upload
type MediaItem struct {
	ContentBase `gorm:"embedded"`

	FileName   string `json:"file_name"`
	URL        string `json:"url"`
	MIMEType   string `gorm:"size:127" json:"mime_type"`
	Size       int64  `json:"size"`
	StorageKey string `gorm:"size:255" json:"storage_key"`
	Alt        string `json:"alt"`
}

// Validate implements the Content interface
func (m *MediaItem) Validate() error {
	if err := m.ContentBase.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(m.URL) == "" {
		return ValidationError("url is required")
	}
	return nil
}

// Slide is a homepage slider entry
type Slide struct {
	ContentBase `gorm:"embedded"`

	Subtitle string `json:"subtitle"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link"`
	Position int    `gorm:"index" json:"position"`
}

// QuickAccessItem is an entry of the quick access menu
type QuickAccessItem struct {
	ContentBase `gorm:"embedded"`

	Icon     string `json:"icon"`
	Link     string `json:"link"`
	Position int    `gorm:"index" json:"position"`
}
