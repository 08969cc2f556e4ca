package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidConfiguration, "invalid configuration")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidConfiguration, err.Code)
	suite.Equal("invalid configuration", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidWindow, "window must be positive, got %d", -1)
	suite.Equal(ErrCodeInvalidWindow, err.Code)
	suite.Equal("window must be positive, got -1", err.Message)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "failed to read bars", cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("[202] failed to read bars: underlying error", err.Error())
	suite.ErrorIs(err, cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "no bars for symbol %s", "NIFTY")
	suite.Equal("no bars for symbol NIFTY", err.Message)
	suite.Equal(cause, errors.Unwrap(err))
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeNoValidExpiry, "no valid expiry")
	suite.Equal("[300] no valid expiry", err.Error())
}

func (suite *ErrorTestSuite) TestIsMatchesByCode() {
	err := Newf(ErrCodeNoValidExpiry, "all expiries before %s", "2024-01-26")
	suite.True(Is(err, ErrNoValidExpiry))
	suite.False(Is(err, ErrPriceUnavailable))

	wrapped := fmt.Errorf("entry aborted: %w", err)
	suite.True(errors.Is(wrapped, ErrNoValidExpiry))
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeInvalidTransition, GetCode(New(ErrCodeInvalidTransition, "bad")))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
	suite.True(HasCode(fmt.Errorf("ctx: %w", New(ErrCodeBarOutOfOrder, "x")), ErrCodeBarOutOfOrder))
}

func (suite *ErrorTestSuite) TestAs() {
	var target *Error
	suite.True(As(fmt.Errorf("wrap: %w", New(ErrCodeWriteFailed, "disk")), &target))
	suite.Equal(ErrCodeWriteFailed, target.Code)
}

func (suite *ErrorTestSuite) TestInsufficientWarmupError() {
	err := NewInsufficientWarmupError("ma", 30, 12)
	suite.Equal(30, err.Required)
	suite.Equal(12, err.Actual)
	suite.Contains(err.Error(), "12 of 30 bars")
	suite.True(IsInsufficientWarmupError(fmt.Errorf("signal: %w", err)))
	suite.False(IsInsufficientWarmupError(errors.New("other")))
}
