// Package linear implements regularized linear models fitted with L-BFGS:
// LinearRegression and PoissonRegression for continuous and count targets,
// LogisticRegression for binary classification, and SoftmaxClassifier for
// multinomial classification.
//
// All models share the same construction and training surface: a constructor
// that takes the ridge strength lambda and rejects negative values, a Fit
// that adds the intercept column and minimizes the model's penalized loss,
// and Predict over a dense feature matrix. Classifiers additionally expose
// PredictProba and the class labels seen during training. Fitted models
// serialize to JSON snapshots via Save and Load.
//
//	clf, err := linear.NewSoftmaxClassifier(0.01)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := clf.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	probs, err := clf.PredictProba(XTest)
//
// Optimization runs on gonum.org/v1/gonum/optimize. Each model defines its
// loss and gradient as an objective whose forward pass is computed once per
// optimizer step and shared between the two, and a recorder keeps the
// training-loss curve available through LossHistory after Fit.
package linear
