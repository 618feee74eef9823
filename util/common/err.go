package common

import (
	"errors"
	"fmt"

	"github.com/procodebh/crm-console/logger"
)

func NewErrorf(format string, a ...any) error {
	return errors.New(fmt.Sprintf(format, a...))
}

func NewError(a ...any) error {
	return errors.New(fmt.Sprint(a...))
}

// Recover logs a recovered panic under msg and returns it.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil && msg != "" {
		logger.Error(msg, " panic: ", panicErr)
	}
	return panicErr
}

// Combine joins the non-nil errors, or returns nil when there are none.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}
