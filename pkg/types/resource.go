// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the resource-curator
// pipeline: search hits, curated fragments, stored resource records, page
// envelopes, exercises, and configuration.
package types

import (
	"fmt"
	"strings"
	"time"
)

// ResourceType classifies a stored teaching resource.
type ResourceType string

const (
	ResourceLessonPlan ResourceType = "lesson-plan"
	ResourceCourseware ResourceType = "courseware"
	ResourceExercise   ResourceType = "exercise"
	ResourceVideo      ResourceType = "video"
	ResourceGeneric    ResourceType = "generic-resource"
)

// validResourceTypes is the closed set of accepted ResourceType values.
var validResourceTypes = map[ResourceType]bool{
	ResourceLessonPlan: true,
	ResourceCourseware: true,
	ResourceExercise:   true,
	ResourceVideo:      true,
	ResourceGeneric:    true,
}

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	return validResourceTypes[t]
}

// ParseResourceType converts s into a ResourceType, rejecting unknown values.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewError(ReasonValidation, fmt.Sprintf("unknown resource type %q", s), nil)
	}
	return t, nil
}

// ResourceRecord is a persisted teaching resource.
type ResourceRecord struct {
	// ID is assigned by the store on create.
	ID int64 `json:"id" yaml:"id"`

	// Title is the display title. Never empty.
	Title string `json:"title" yaml:"title"`

	// Type is drawn from the closed ResourceType set.
	Type ResourceType `json:"type" yaml:"type"`

	// Content is the resource body: an educational excerpt or a Markdown report.
	Content string `json:"content" yaml:"content"`

	// SourceURL holds one URL, or several joined with ", " for synthesized reports.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Tags is a comma-separated tag list; curated records carry the query.
	Tags string `json:"tags" yaml:"tags"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Validate checks the fields required before a record may be stored.
func (r ResourceRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return NewError(ReasonValidation, "missing required field: title", nil)
	}
	if !r.Type.Valid() {
		return NewError(ReasonValidation, fmt.Sprintf("invalid resource type %q", r.Type), nil)
	}
	return nil
}

// ResourcePatch carries a partial update. Nil fields are left untouched.
type ResourcePatch struct {
	Title     *string       `json:"title,omitempty"`
	Type      *ResourceType `json:"type,omitempty"`
	Content   *string       `json:"content,omitempty"`
	SourceURL *string       `json:"source_url,omitempty"`
	Tags      *string       `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ResourcePatch) IsEmpty() bool {
	return p.Title == nil && p.Type == nil && p.Content == nil && p.SourceURL == nil && p.Tags == nil
}

// Apply returns r with the patch applied, validated.
func (p ResourcePatch) Apply(r ResourceRecord) (ResourceRecord, error) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.SourceURL != nil {
		r.SourceURL = *p.SourceURL
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
	if err := r.Validate(); err != nil {
		return ResourceRecord{}, err
	}
	return r, nil
}
