package model

import (
	"bytes"
	"math"
	"testing"
)

func TestStateManagerLifecycle(t *testing.T) {
	sm := NewStateManager()

	if sm.IsFitted() {
		t.Error("new StateManager should not be fitted")
	}
	if err := sm.RequireFitted(); err == nil {
		t.Error("RequireFitted should fail before SetFitted")
	}

	sm.SetDimensions(5, 100)
	sm.SetFitted()

	if !sm.IsFitted() {
		t.Error("StateManager should be fitted after SetFitted")
	}
	if err := sm.RequireFitted(); err != nil {
		t.Errorf("RequireFitted after SetFitted = %v, want nil", err)
	}

	nFeatures, nSamples := sm.GetDimensions()
	if nFeatures != 5 || nSamples != 100 {
		t.Errorf("GetDimensions() = (%d, %d), want (5, 100)", nFeatures, nSamples)
	}

	sm.Reset()
	if sm.IsFitted() {
		t.Error("StateManager should not be fitted after Reset")
	}
	nFeatures, nSamples = sm.GetDimensions()
	if nFeatures != 0 || nSamples != 0 {
		t.Errorf("GetDimensions() after Reset = (%d, %d), want (0, 0)", nFeatures, nSamples)
	}
}

func TestStateManagerStateRoundTrip(t *testing.T) {
	sm := NewStateManager()
	sm.SetDimensions(3, 42)
	sm.SetFitted()

	state := sm.GetState()

	restored := NewStateManager()
	restored.SetState(state)

	if !restored.IsFitted() {
		t.Error("restored StateManager should be fitted")
	}
	nFeatures, nSamples := restored.GetDimensions()
	if nFeatures != 3 || nSamples != 42 {
		t.Errorf("restored dimensions = (%d, %d), want (3, 42)", nFeatures, nSamples)
	}
}

func TestModelSnapshotValidate(t *testing.T) {
	tests := []struct {
		name     string
		snapshot ModelSnapshot
		wantErr  bool
	}{
		{
			name: "valid fitted snapshot",
			snapshot: ModelSnapshot{
				ModelType: "LinearRegression",
				Version:   SnapshotVersion,
				Weights:   []float64{0.5, 1.2},
				NFeatures: 1,
				IsFitted:  true,
			},
			wantErr: false,
		},
		{
			name: "missing model type",
			snapshot: ModelSnapshot{
				Version:  SnapshotVersion,
				Weights:  []float64{0.5},
				IsFitted: true,
			},
			wantErr: true,
		},
		{
			name: "fitted without weights",
			snapshot: ModelSnapshot{
				ModelType: "LinearRegression",
				Version:   SnapshotVersion,
				IsFitted:  true,
			},
			wantErr: true,
		},
		{
			name: "negative lambda",
			snapshot: ModelSnapshot{
				ModelType: "LinearRegression",
				Version:   SnapshotVersion,
				Weights:   []float64{0.5},
				Lambda:    -1,
				IsFitted:  true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snapshot.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSnapshotJSONPrecision(t *testing.T) {
	precise := []float64{math.Pi, math.E, math.Sqrt2, 1.0 / 3.0, 0.1234567890123456}

	snap := ModelSnapshot{
		ModelType: "LinearRegression",
		Version:   SnapshotVersion,
		Weights:   precise,
		NFeatures: 4,
		Lambda:    1e-7,
		IsFitted:  true,
	}

	data, err := snap.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var loaded ModelSnapshot
	if err := loaded.FromJSON(data); err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if len(loaded.Weights) != len(precise) {
		t.Fatalf("len(Weights) = %d, want %d", len(loaded.Weights), len(precise))
	}
	for i, w := range precise {
		if loaded.Weights[i] != w {
			t.Errorf("Weights[%d] = %.17g, want %.17g", i, loaded.Weights[i], w)
		}
	}
	if loaded.Lambda != snap.Lambda {
		t.Errorf("Lambda = %.17g, want %.17g", loaded.Lambda, snap.Lambda)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap := ModelSnapshot{
		ModelType: "SoftmaxClassifier",
		Version:   SnapshotVersion,
		Weights:   []float64{0.1, -0.2, 0.3, 0.4},
		NFeatures: 1,
		Classes:   []int{0, 1, 2},
		Lambda:    0.5,
		IsFitted:  true,
	}

	var buf bytes.Buffer
	if err := SaveModelToWriter(&snap, &buf); err != nil {
		t.Fatalf("SaveModelToWriter() error = %v", err)
	}

	var loaded ModelSnapshot
	if err := LoadModelFromReader(&loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader() error = %v", err)
	}

	if loaded.ModelType != snap.ModelType {
		t.Errorf("ModelType = %v, want %v", loaded.ModelType, snap.ModelType)
	}
	if len(loaded.Weights) != len(snap.Weights) {
		t.Fatalf("len(Weights) = %d, want %d", len(loaded.Weights), len(snap.Weights))
	}
	for i, w := range snap.Weights {
		if loaded.Weights[i] != w {
			t.Errorf("Weights[%d] = %v, want %v", i, loaded.Weights[i], w)
		}
	}
	if len(loaded.Classes) != 3 {
		t.Errorf("len(Classes) = %d, want 3", len(loaded.Classes))
	}
	if loaded.Lambda != 0.5 {
		t.Errorf("Lambda = %v, want 0.5", loaded.Lambda)
	}
}
