// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package pds

import (
	"errors"
	"fmt"
	"net/http"
)

// XRPCError represents a structured error response from the PDS.
// Callers can use errors.As to extract the structured information:
//
//	var xrpcErr *pds.XRPCError
//	if errors.As(err, &xrpcErr) {
//	    if xrpcErr.Name == pds.ErrNameRecordNotFound { ... }
//	}
type XRPCError struct {
	// Name is the XRPC error name (e.g., "AuthenticationRequired",
	// "RecordNotFound").
	Name string `json:"error"`
	// Message is the human-readable error description from the server.
	Message string `json:"message"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *XRPCError) Error() string {
	return fmt.Sprintf("xrpc: %s (%d): %s", e.Name, e.StatusCode, e.Message)
}

// Error names the PDS returns for the endpoints this client calls.
const (
	ErrNameAuthRequired       = "AuthenticationRequired"
	ErrNameExpiredToken       = "ExpiredToken"
	ErrNameInvalidToken       = "InvalidToken"
	ErrNameInvalidRequest     = "InvalidRequest"
	ErrNameRecordNotFound     = "RecordNotFound"
	ErrNameBlobNotFound       = "BlobNotFound"
	ErrNameRepoNotFound       = "RepoNotFound"
	ErrNameInvalidSwap        = "InvalidSwap"
	ErrNameBlobTooLarge       = "BlobTooLarge"
	ErrNameRateLimitExceeded  = "RateLimitExceeded"
	ErrNameInternalServerErr  = "InternalServerError"
	ErrNameAccountTakedown    = "AccountTakedown"
	ErrNameInvalidCredentials = "InvalidCredentials"
)

// IsXRPCError checks whether err is an *XRPCError with the given error name.
func IsXRPCError(err error, name string) bool {
	var xrpcErr *XRPCError
	if errors.As(err, &xrpcErr) {
		return xrpcErr.Name == name
	}
	return false
}

// IsNotFound reports whether err indicates a missing record or blob.
// The PDS is inconsistent about the error name for unknown record keys
// (older versions return InvalidRequest with a 400), so the status code
// is consulted as well.
func IsNotFound(err error) bool {
	var xrpcErr *XRPCError
	if !errors.As(err, &xrpcErr) {
		return false
	}
	switch xrpcErr.Name {
	case ErrNameRecordNotFound, ErrNameBlobNotFound, ErrNameRepoNotFound:
		return true
	}
	return xrpcErr.StatusCode == http.StatusNotFound
}

// IsAuthFailure reports whether err indicates bad credentials or an
// expired/invalid session token.
func IsAuthFailure(err error) bool {
	var xrpcErr *XRPCError
	if !errors.As(err, &xrpcErr) {
		return false
	}
	switch xrpcErr.Name {
	case ErrNameAuthRequired, ErrNameExpiredToken, ErrNameInvalidToken, ErrNameInvalidCredentials:
		return true
	}
	return xrpcErr.StatusCode == http.StatusUnauthorized
}
