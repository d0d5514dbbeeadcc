package entity

import (
	"time"

	"github.com/google/uuid"
)

// PsycheTraits is a slow-moving personality overlay updated by the
// psyche_batch job on top of the fast per-conversation emotional state.
type PsycheTraits struct {
	Attachment  float64 `json:"attachment"`
	Openness    float64 `json:"openness"`
	Playfulness float64 `json:"playfulness"`
	Stability   float64 `json:"stability"`
}

type EmotionalState struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Valence         float64
	Arousal         float64
	DominantEmotion string
	Psyche          PsycheTraits
	UpdatedAt       time.Time
}
