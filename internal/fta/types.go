// Package fta implements the client for the tax authority's e-invoicing API:
// OAuth2 client-credentials authentication with lazy token caching, a
// blocking fixed-window rate limiter, and an exponential-backoff retry loop
// around invoice submission, status queries, cancellation and TRN validation.
//
// A Client instance carries shared mutable state (the token cache and the
// rate window) behind mutexes, so a single instance is safe for concurrent
// use. All waiting happens inline in the calling goroutine; there are no
// background refresh threads.
package fta

import (
	"time"
)

// SubmitOptions controls a single invoice submission.
type SubmitOptions struct {
	// ValidateOnly routes the document to the validation endpoint instead of
	// the submission endpoint; nothing is cleared or stored by the authority.
	ValidateOnly bool
	// ClearanceRequired requests synchronous clearance of the document.
	ClearanceRequired bool
	// NotifyCustomer asks the authority to notify the buyer.
	NotifyCustomer bool
	// Language for authority-generated messages ("en" or "ar"). Defaults to
	// "en" when empty.
	Language string
}

// SubmissionResult is the outcome of a submit or validate-only call.
type SubmissionResult struct {
	Success         bool          `json:"success"`
	SubmissionID    string        `json:"submissionId,omitempty"`
	InvoiceNumber   string        `json:"invoiceNumber,omitempty"`
	Status          string        `json:"status,omitempty"`
	ClearanceStatus string        `json:"clearanceStatus,omitempty"`
	Errors          []ErrorDetail `json:"errors,omitempty"`
	Warnings        []ErrorDetail `json:"warnings,omitempty"`
	SubmittedAt     time.Time     `json:"submittedAt"`
}

// InvoiceStatus is the authority's view of a previously submitted document.
type InvoiceStatus struct {
	SubmissionID    string        `json:"submissionId"`
	InvoiceNumber   string        `json:"invoiceNumber"`
	Status          string        `json:"status"`
	ClearanceStatus string        `json:"clearanceStatus,omitempty"`
	SubmittedAt     time.Time     `json:"submittedAt"`
	ProcessedAt     *time.Time    `json:"processedAt,omitempty"`
	Errors          []ErrorDetail `json:"errors,omitempty"`
	Warnings        []ErrorDetail `json:"warnings,omitempty"`
}

// TRNValidationResult is the authority's registration lookup for a TRN.
type TRNValidationResult struct {
	TRN              string `json:"trn"`
	Registered       bool   `json:"registered"`
	CompanyName      string `json:"companyName,omitempty"`
	RegistrationDate string `json:"registrationDate,omitempty"`
	Status           string `json:"status,omitempty"`
}

// Wire DTOs. Field names follow the provider's JSON contract.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type submitRequest struct {
	InvoiceXML        string `json:"invoiceXml"`
	Hash              string `json:"hash"`
	ClearanceRequired bool   `json:"clearanceRequired"`
	NotifyCustomer    bool   `json:"notifyCustomer"`
	Language          string `json:"language"`
}

type submitResponse struct {
	Success      bool          `json:"success"`
	SubmissionID string        `json:"submissionId"`
	Status       string        `json:"status"`
	Errors       []ErrorDetail `json:"errors"`
	Warnings     []ErrorDetail `json:"warnings"`
	Data         struct {
		ClearanceStatus string `json:"clearanceStatus"`
	} `json:"data"`
}

type statusResponse struct {
	InvoiceNumber   string        `json:"invoiceNumber"`
	Status          string        `json:"status"`
	SubmittedAt     time.Time     `json:"submittedAt"`
	ProcessedAt     *time.Time    `json:"processedAt"`
	ClearanceStatus string        `json:"clearanceStatus"`
	Errors          []ErrorDetail `json:"errors"`
	Warnings        []ErrorDetail `json:"warnings"`
}

type cancelRequest struct {
	SubmissionID string `json:"submissionId"`
	Reason       string `json:"reason"`
}

type cancelResponse struct {
	Success bool `json:"success"`
}

type trnValidationRequest struct {
	TRN string `json:"trn"`
}

type trnValidationResponse struct {
	Registered       bool   `json:"registered"`
	CompanyName      string `json:"companyName"`
	RegistrationDate string `json:"registrationDate"`
	Status           string `json:"status"`
}

type errorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Error   string        `json:"error"`
	Errors  []ErrorDetail `json:"errors"`
}
