// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExerciseKind categorizes a generated practice question.
type ExerciseKind string

const (
	ExerciseChoice      ExerciseKind = "multiple-choice"
	ExerciseFillBlank   ExerciseKind = "fill-in-blank"
	ExerciseShortAnswer ExerciseKind = "short-answer"
)

// Exercise is one practice question generated for a knowledge point.
type Exercise struct {
	// ID is assigned by the store; zero until saved.
	ID int64 `json:"id,omitempty" yaml:"id,omitempty"`

	// KnowledgePoint is the topic the exercise was generated for.
	KnowledgePoint string `json:"knowledge_point" yaml:"knowledge_point"`

	// Kind is the question format as reported by the generator.
	Kind ExerciseKind `json:"type" yaml:"type"`

	Question    string   `json:"question" yaml:"question"`
	Answer      string   `json:"answer" yaml:"answer"`
	Explanation string   `json:"explanation" yaml:"explanation"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// ExerciseSet is the response for one exercise-generation request.
type ExerciseSet struct {
	KnowledgePoint string     `json:"knowledge_point" yaml:"knowledge_point"`
	Exercises      []Exercise `json:"exercises" yaml:"exercises"`
	TotalCount     int        `json:"total_count" yaml:"total_count"`
}

// Favorite links a user to a saved resource.
type Favorite struct {
	ID          int64          `json:"id" yaml:"id"`
	UserID      int64          `json:"user_id" yaml:"user_id"`
	Notes       string         `json:"notes" yaml:"notes"`
	FavoritedAt time.Time      `json:"favorited_at" yaml:"favorited_at"`
	Resource    ResourceRecord `json:"resource" yaml:"resource"`
}
