package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/sirupsen/logrus"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLogger is an option builder that sets the logger the Loader reports to.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(log logrus.FieldLogger) LoaderBuilderOption {
	return func(l *loader) {
		l.log = log
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - model: the model to cache under its own name
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[model.Name()] = model
	}
}
