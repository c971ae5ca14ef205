package domain

import "context"

// ServicePort defines the service contract for classify
type ServicePort interface {
	Classify(ctx context.Context, in ClassifyInput) (ClassifyOutput, error)
	History(ctx context.Context, q HistoryQuery) ([]Prediction, error)
	Model() ModelInfo
}
