package model

import (
	"encoding/json"
	"fmt"
)

// SnapshotVersion is the current model snapshot format version.
const SnapshotVersion = "1.0"

// ModelSnapshot is the JSON-serializable state of a fitted linear model.
// Weights hold the full flattened parameter vector including the intercept
// row; multiclass models additionally record the class labels so predictions
// can be mapped back after loading.
type ModelSnapshot struct {
	// ModelType is the model kind ("LinearRegression", "SoftmaxClassifier", ...).
	ModelType string `json:"model_type"`

	// Version is the snapshot format version, for compatibility checks.
	Version string `json:"version"`

	// Weights is the flattened parameter vector, intercept row included.
	Weights []float64 `json:"weights"`

	// NFeatures is the number of input features, intercept excluded.
	NFeatures int `json:"n_features"`

	// Classes holds the sorted class labels for classifiers.
	Classes []int `json:"classes,omitempty"`

	// Lambda is the ridge regularization strength used at fit time.
	Lambda float64 `json:"lambda"`

	// IsFitted records whether the model had been fitted when saved.
	IsFitted bool `json:"is_fitted"`
}

// ToJSON serializes the snapshot to indented JSON.
func (ms *ModelSnapshot) ToJSON() ([]byte, error) {
	return json.MarshalIndent(ms, "", "  ")
}

// FromJSON deserializes the snapshot from JSON.
func (ms *ModelSnapshot) FromJSON(data []byte) error {
	return json.Unmarshal(data, ms)
}

// Validate checks that the snapshot is internally consistent.
func (ms *ModelSnapshot) Validate() error {
	if ms.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}

	if ms.Version == "" {
		return fmt.Errorf("version is required")
	}

	if !ms.IsFitted && len(ms.Weights) > 0 {
		return fmt.Errorf("unfitted model should not have weights")
	}

	if ms.IsFitted && len(ms.Weights) == 0 {
		return fmt.Errorf("fitted model must have weights")
	}

	if ms.Lambda < 0 {
		return fmt.Errorf("lambda must be non-negative")
	}

	return nil
}
