// Package classifier assigns an advisory priority label to an issue from its
// text. The remote backend is best-effort; callers compose it with a
// deterministic fallback so a classification failure never blocks intake.
package classifier

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"govconnect-be/models"
)

// Input carries the issue fields the classifier may consider.
type Input struct {
	Title       string
	Description string
	Category    string
	State       string
	Location    string
}

type Classifier interface {
	Classify(ctx context.Context, in Input) (models.IssuePriority, error)
}

// NewStatic returns a classifier that always produces the given label.
func NewStatic(p models.IssuePriority) Classifier {
	return staticClassifier{p: p}
}

type staticClassifier struct {
	p models.IssuePriority
}

func (s staticClassifier) Classify(context.Context, Input) (models.IssuePriority, error) {
	return s.p, nil
}

// WithFallback wraps a primary classifier so that any failure is absorbed
// and answered by the fallback instead.
func WithFallback(primary, fallback Classifier, logger *zap.Logger) Classifier {
	return &fallbackClassifier{primary: primary, fallback: fallback, logger: logger}
}

type fallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	logger   *zap.Logger
}

func (f *fallbackClassifier) Classify(ctx context.Context, in Input) (models.IssuePriority, error) {
	p, err := f.primary.Classify(ctx, in)
	if err != nil {
		f.logger.Warn("priority classifier unavailable, using fallback", zap.Error(err))
		return f.fallback.Classify(ctx, in)
	}
	return p, nil
}

// normalizeLabel lower-cases the backend output and strips everything that
// is not a letter, so " High.\n" and "HIGH" both become "high".
func normalizeLabel(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
