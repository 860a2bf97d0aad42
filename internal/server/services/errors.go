package services

import (
	"errors"

	"github.com/dmitrijs2005/todolist/internal/common"
)

// classify passes domain errors through unchanged and wraps everything else
// as a *common.StorageError tagged with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var ve *common.ValidationError
	var se *common.StorageError
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrInvalidCredentials),
		errors.As(err, &ve),
		errors.As(err, &se):
		return err
	}

	return common.NewStorageError(op, err)
}
