package service

import (
	"errors"

	"wordstake_backend/internal/domain"
)

// Rejections: expected, user-correctable conditions. Handlers return them as
// structured {accepted:false, reason} responses, never as fatal errors.
var (
	ErrUnknownGameOrPlayer = errors.New("unknown game or player")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrDepositNotFound     = errors.New("transaction not found, retry after propagation")
	ErrSenderMismatch      = errors.New("sender mismatch")
	ErrInsufficientDeposit = errors.New("insufficient deposit")

	ErrGameNotPlaying      = errors.New("game is not in progress")
	ErrWordTooShort        = errors.New("word too short")
	ErrWordNotFormable     = errors.New("word cannot be formed from the letter pool")
	ErrWordNotInDictionary = errors.New("not a valid word")
	ErrDuplicateWord       = errors.New("word already submitted")

	ErrCancelInProgress = errors.New("cannot cancel - game in progress")
	ErrGameNotWaiting   = errors.New("game already started")
	ErrAlreadyFinished  = errors.New("game already finished")

	ErrInvalidBet          = errors.New("invalid bet amount")
	ErrBetTooLow           = errors.New("bet below minimum")
	ErrBetTooHigh          = errors.New("bet exceeds maximum")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidAddress      = errors.New("invalid wallet address")
)

var rejections = []error{
	ErrUnknownGameOrPlayer,
	ErrCurrencyMismatch,
	ErrDepositNotFound,
	ErrSenderMismatch,
	ErrInsufficientDeposit,
	ErrGameNotPlaying,
	ErrWordTooShort,
	ErrWordNotFormable,
	ErrWordNotInDictionary,
	ErrDuplicateWord,
	ErrCancelInProgress,
	ErrGameNotWaiting,
	ErrAlreadyFinished,
	ErrInvalidBet,
	ErrBetTooLow,
	ErrBetTooHigh,
	ErrUnsupportedCurrency,
	ErrInvalidAddress,
	domain.ErrSignatureUsed,
	domain.ErrDepositExists,
	domain.ErrGameNotAcceptingDeposits,
}

// IsRejection reports whether the error is an expected rejection rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
