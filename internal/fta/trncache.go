package fta

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gulfbooks/einvoice/internal/invoice"
)

// TRNRegistry answers "is this TRN registered with the authority?" with a
// database-backed cache in front of the live API. Results are cached with a
// configurable TTL so repeated checks for the same counterparty do not burn
// the rate budget.
type TRNRegistry struct {
	client   *Client
	pool     *pgxpool.Pool
	logger   *slog.Logger
	cacheTTL time.Duration
}

// NewTRNRegistry creates a registry lookup backed by client and cached in
// pool.
func NewTRNRegistry(client *Client, pool *pgxpool.Pool, cacheTTL time.Duration, logger *slog.Logger) *TRNRegistry {
	return &TRNRegistry{
		client:   client,
		pool:     pool,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// Lookup checks a TRN against the authority's registry. The TRN is cleaned
// and format-checked locally first; a malformed TRN fails without a network
// call. Cache hits are served from the database, misses and expired entries
// trigger a live call whose result is cached.
func (r *TRNRegistry) Lookup(ctx context.Context, trn string) (*TRNValidationResult, error) {
	local := invoice.ValidateTRN(trn)
	if !local.Valid {
		return nil, fmt.Errorf("trn lookup: %w", invoice.ValidationErrors(local.Errors))
	}
	cleaned := local.Value

	if cached, err := r.getFromCache(ctx, cleaned); err == nil {
		r.logger.Debug("trn cache hit", "trn", cleaned, "registered", cached.Registered)
		return cached, nil
	}

	r.logger.Info("trn live validation", "trn", cleaned)
	result, err := r.client.ValidateTRN(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	if cacheErr := r.saveToCache(ctx, result); cacheErr != nil {
		r.logger.Warn("failed to cache trn validation", "error", cacheErr, "trn", cleaned)
	}

	return result, nil
}

// getFromCache returns the cached result for trn, or an error when no
// non-expired entry exists.
func (r *TRNRegistry) getFromCache(ctx context.Context, trn string) (*TRNValidationResult, error) {
	var registered bool
	var companyName, registrationDate, status *string
	var expiresAt time.Time

	err := r.pool.QueryRow(ctx, `
		SELECT registered, company_name, registration_date, status, expires_at
		FROM trn_validation_cache
		WHERE trn = $1
		LIMIT 1
	`, trn).Scan(&registered, &companyName, &registrationDate, &status, &expiresAt)
	if err != nil {
		return nil, err
	}

	if time.Now().UTC().After(expiresAt) {
		return nil, fmt.Errorf("cache entry expired")
	}

	result := &TRNValidationResult{TRN: trn, Registered: registered}
	if companyName != nil {
		result.CompanyName = *companyName
	}
	if registrationDate != nil {
		result.RegistrationDate = *registrationDate
	}
	if status != nil {
		result.Status = *status
	}
	return result, nil
}

// saveToCache upserts a validation result with the configured TTL.
func (r *TRNRegistry) saveToCache(ctx context.Context, result *TRNValidationResult) error {
	now := time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO trn_validation_cache (trn, registered, company_name, registration_date, status, validated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (trn) DO UPDATE SET
			registered = EXCLUDED.registered,
			company_name = EXCLUDED.company_name,
			registration_date = EXCLUDED.registration_date,
			status = EXCLUDED.status,
			validated_at = EXCLUDED.validated_at,
			expires_at = EXCLUDED.expires_at
	`, result.TRN, result.Registered,
		nullable(result.CompanyName), nullable(result.RegistrationDate), nullable(result.Status),
		now, now.Add(r.cacheTTL))
	if err != nil {
		return fmt.Errorf("upserting trn cache entry: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
