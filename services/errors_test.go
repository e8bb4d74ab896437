// services/errors_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gewnthar/trainboard/database"
	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/normalizer"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"nil", nil, models.ErrorKindNone},
		{"network", &irail.NetworkError{URL: "u", Err: errors.New("refused")}, models.ErrorKindNetwork},
		{"wrapped upstream", fmt.Errorf("fetch: %w", &irail.UpstreamError{URL: "u", StatusCode: 503}), models.ErrorKindUpstream},
		{"validation", &normalizer.ValidationError{Field: "vehicle id", Reason: "is missing"}, models.ErrorKindValidation},
		{"missing key", models.ErrMissingScheduledTime, models.ErrorKindValidation},
		{"storage", &database.StorageError{Op: "commit", Err: errors.New("deadlock")}, models.ErrorKindStorage},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), models.ErrorKindNetwork},
		{"other", errors.New("boom"), models.ErrorKindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}
