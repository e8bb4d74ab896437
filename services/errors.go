// services/errors.go
package services

import (
	"context"
	"errors"

	"github.com/gewnthar/trainboard/database"
	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/normalizer"
)

// ClassifyError maps an error from any stage to the kind recorded in the run log.
func ClassifyError(err error) models.ErrorKind {
	if err == nil {
		return models.ErrorKindNone
	}

	var (
		netErr      *irail.NetworkError
		upstreamErr *irail.UpstreamError
		validErr    *normalizer.ValidationError
		storageErr  *database.StorageError
	)
	switch {
	case errors.As(err, &netErr):
		return models.ErrorKindNetwork
	case errors.As(err, &upstreamErr):
		return models.ErrorKindUpstream
	case errors.As(err, &storageErr):
		return models.ErrorKindStorage
	case errors.As(err, &validErr),
		errors.Is(err, models.ErrMissingStationID),
		errors.Is(err, models.ErrMissingVehicleID),
		errors.Is(err, models.ErrMissingScheduledTime):
		return models.ErrorKindValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.ErrorKindNetwork
	}
	return models.ErrorKindInternal
}
