package service

import (
	"errors"
	"fmt"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// translate maps errors surfacing from a unit of work onto the apperror taxonomy.
// AppErrors pass through unchanged; state-machine violations become ST_001.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var te *domain.TransitionError
	if errors.As(err, &te) {
		return apperror.ErrInvalidState(te.Entity, te.Current, te.Required...)
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

func checkAmount(amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}
