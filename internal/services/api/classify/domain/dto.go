// Package domain holds DTOs for classify http and service contracts
package domain

import "time"

// ClassifyInput is one classification request
type ClassifyInput struct {
	UserID string   `json:"user_id,omitempty" validate:"omitempty,max=128,ident" example:"u-42"`
	Texts  []string `json:"texts" example:"This is a great movie!"`
}

// Output is the decision for one input text, aligned with ClassifyInput.Texts
type Output struct {
	Text  string  `json:"text"  example:"This is a great movie!"`
	Label string  `json:"label" example:"positive"`
	Score float64 `json:"score" example:"0.93"`
}

// ClassifyOutput is the response for one batch
type ClassifyOutput struct {
	BatchID string   `json:"batch_id" example:"01JA2X9V7Q0M7H6SZ0Z2XK3T1C"`
	Outputs []Output `json:"outputs"`
}

// HistoryQuery selects a user's latest predictions
type HistoryQuery struct {
	UserID string `query:"user_id" validate:"required,max=128,ident" example:"u-42"`
	Limit  int    `query:"limit"   validate:"omitempty,min=1,max=500" example:"50"`
}

// Prediction is one stored classification
type Prediction struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Document  string    `json:"document"`
	Sentiment string    `json:"sentiment"`
	Score     float64   `json:"score"`
}

// ModelInfo describes the loaded model and preprocessing
type ModelInfo struct {
	Engine         string   `json:"engine"          example:"linear"`
	SequenceLength int      `json:"sequence_length" example:"256"`
	Outputs        int      `json:"outputs"         example:"1"`
	Labels         []string `json:"labels"`
	Threshold      float64  `json:"threshold"       example:"0.5"`
	Language       string   `json:"language"        example:"english"`
	Stem           bool     `json:"stem"`
	Fold           bool     `json:"fold"`
	VocabSize      int      `json:"vocab_size"      example:"20000"`
	NumWords       int      `json:"num_words"       example:"10000"`
	MaxTextLength  int      `json:"max_text_length" example:"2024"`
	MaxItems       int      `json:"max_items"       example:"256"`
	History        string   `json:"history"         example:"pg"`
}
