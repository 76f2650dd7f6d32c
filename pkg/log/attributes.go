// Standard attribute keys for machine learning log records.
//
// Using these keys consistently across the library enables filtering and
// analysis of training and inference logs. Keys follow a hierarchical naming
// convention ("model.name", "data.samples") so structured log pipelines can
// group related fields.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "SoftmaxClassifier", "LinearRegression", "OneHotEncoder"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a model instance,
	// useful when several instances of the same type run concurrently.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "linear", "preprocessing", "modelselection"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey is the number of target classes for classification.
	ClassesKey = "data.classes"
)

// Training and evaluation metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records the training loss value.
	LossKey = "metrics.loss"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// R2ScoreKey records the coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// IterationKey records the iteration count of an iterative algorithm.
	IterationKey = "training.iteration"
)

// Hyperparameters and configuration.
const (
	// RegularizationKey records the ridge regularization strength.
	RegularizationKey = "hyperparams.regularization"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values for common operations.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
)
