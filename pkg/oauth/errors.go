package oauth

import "errors"

var (
	ErrMissingClientID     = errors.New("oauth: missing client ID")
	ErrMissingClientSecret = errors.New("oauth: missing client secret")
	ErrEmailNotVerified    = errors.New("oauth: email not verified")
	ErrNilResponse         = errors.New("oauth: nil response from provider")
	ErrFetchFailed         = errors.New("oauth: failed to fetch from provider")
	ErrRequestFailed       = errors.New("oauth: request returned non-OK status")
	ErrDecodeFailed        = errors.New("oauth: failed to decode response")

	ErrUnknownProvider = errors.New("oauth: unknown provider")
	ErrStateMismatch   = errors.New("oauth: state mismatch")
	ErrMissingCode     = errors.New("oauth: missing authorization code")
)
