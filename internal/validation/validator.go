package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/news-aggregator-api/internal/models"
)

// Field limits
const (
	MaxTitleLength    = 300
	MaxSourceLength   = 100
	MaxCategoryLength = 50
	MaxLinkLength     = 2048
	MinPasswordLength = 6
	MaxNameLength     = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AllowedImageTypes lists accepted upload content types
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// timestampLayouts are accepted for expiresAt, most specific first
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator provides validation methods
type Validator struct {
	maxUploadSize int64
}

// NewValidator creates a new validator. maxUploadSize bounds image uploads in bytes.
func NewValidator(maxUploadSize int64) *Validator {
	return &Validator{maxUploadSize: maxUploadSize}
}

// ValidateEmail checks the shape of an email address
func (v *Validator) ValidateEmail(email string) []ValidationError {
	email = strings.TrimSpace(email)
	if email == "" {
		return []ValidationError{{Field: "email", Message: "email is required"}}
	}
	if !IsValidEmail(email) {
		return []ValidationError{{Field: "email", Message: "invalid email format", Value: email}}
	}
	return nil
}

// ValidateRegistration validates the legacy password registration fields
func (v *Validator) ValidateRegistration(name, email, password string) []ValidationError {
	var errors []ValidationError

	name = strings.TrimSpace(name)
	if name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		errors = append(errors, ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", MaxNameLength)})
	}

	errors = append(errors, v.ValidateEmail(email)...)

	if password == "" {
		errors = append(errors, ValidationError{Field: "password", Message: "password is required"})
	} else if len(password) < MinPasswordLength {
		errors = append(errors, ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)})
	}

	return errors
}

// ValidateArticleInput validates the fields of a new article
func (v *Validator) ValidateArticleInput(in *models.ArticleInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(in.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	} else {
		errors = append(errors, validateTitle(in.Title)...)
	}

	if strings.TrimSpace(in.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	}

	errors = append(errors, validateOptional(in.Source, in.Category, in.OriginalLink, in.Status, in.ExpiresAt)...)

	if in.Image != nil {
		errors = append(errors, v.ValidateImage(in.Image)...)
	}

	return errors
}

// ValidateArticlePatch validates the provided fields of a partial update
func (v *Validator) ValidateArticlePatch(p *models.ArticlePatch) []ValidationError {
	var errors []ValidationError

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			errors = append(errors, ValidationError{Field: "title", Message: "title cannot be empty"})
		} else {
			errors = append(errors, validateTitle(*p.Title)...)
		}
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content cannot be empty"})
	}

	errors = append(errors, validateOptional(
		deref(p.Source), deref(p.Category), deref(p.OriginalLink), deref(p.Status), deref(p.ExpiresAt),
	)...)

	if p.Image != nil {
		errors = append(errors, v.ValidateImage(p.Image)...)
	}

	return errors
}

// ValidateImage checks an upload's type and size
func (v *Validator) ValidateImage(upload *models.Upload) []ValidationError {
	var errors []ValidationError

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(upload.ContentType, ";")[0]))
	if !AllowedImageTypes[contentType] {
		errors = append(errors, ValidationError{
			Field:   "image",
			Message: "image must be one of: jpeg, png, gif, webp",
			Value:   upload.ContentType,
		})
	}
	if v.maxUploadSize > 0 && upload.Size > v.maxUploadSize {
		errors = append(errors, ValidationError{
			Field:   "image",
			Message: fmt.Sprintf("image exceeds maximum size of %d bytes", v.maxUploadSize),
			Value:   upload.Size,
		})
	}

	return errors
}

func validateTitle(title string) []ValidationError {
	if utf8.RuneCountInString(strings.TrimSpace(title)) > MaxTitleLength {
		return []ValidationError{{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", MaxTitleLength)}}
	}
	return nil
}

// validateOptional checks fields that may be empty
func validateOptional(source, category, link, status, expiresAt string) []ValidationError {
	var errors []ValidationError

	if utf8.RuneCountInString(strings.TrimSpace(source)) > MaxSourceLength {
		errors = append(errors, ValidationError{Field: "source", Message: fmt.Sprintf("source exceeds %d characters", MaxSourceLength)})
	}
	if utf8.RuneCountInString(strings.TrimSpace(category)) > MaxCategoryLength {
		errors = append(errors, ValidationError{Field: "category", Message: fmt.Sprintf("category exceeds %d characters", MaxCategoryLength)})
	}

	if link = strings.TrimSpace(link); link != "" {
		if len(link) > MaxLinkLength || !IsHTTPURL(link) {
			errors = append(errors, ValidationError{Field: "originalLink", Message: "originalLink must be an absolute http(s) URL", Value: link})
		}
	}

	if status = strings.TrimSpace(status); status != "" && !models.ValidStatuses[status] {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published",
			Value:   status,
		})
	}

	if expiresAt = strings.TrimSpace(expiresAt); expiresAt != "" {
		if _, err := ParseTimestamp(expiresAt); err != nil {
			errors = append(errors, ValidationError{Field: "expiresAt", Message: "invalid ISO 8601 date format", Value: expiresAt})
		}
	}

	return errors
}

// ParseTimestamp parses an ISO 8601 timestamp. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// IsValidEmail reports whether s looks like an email address
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsHTTPURL reports whether s is an absolute http or https URL
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
