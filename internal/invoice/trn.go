package invoice

import (
	"fmt"
	"regexp"
	"strings"
)

// TRN format constants. A Tax Registration Number is 15 digits and currently
// always begins with "1".
const (
	trnLength = 15
	trnPrefix = "1"
)

var (
	trnPattern        = regexp.MustCompile(`^1\d{14}$`)
	nationalIDPattern = regexp.MustCompile(`^784\d{12}$`)
	digitsOnly        = regexp.MustCompile(`^\d+$`)
)

// TRNCheckDigitFunc verifies the check digit of a cleaned 15-digit TRN.
// The authority has not published its real algorithm, so the default is a
// Luhn check and the result is advisory only: a failure is reported as a
// warning and never flips the Valid flag on its own. Replace this hook to
// plug in a corroborated algorithm, or nil it out to disable the check.
var TRNCheckDigitFunc = luhnValid

// TRNResult is the outcome of structural TRN validation. Valid reflects the
// hard format rules only; advisory findings (check digit) are appended to
// Errors with warning severity.
type TRNResult struct {
	Value  string            `json:"value"`
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// CleanTRN strips the separator characters commonly found in displayed
// TRNs (spaces, dashes, dots, slashes).
func CleanTRN(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '/', '\t':
			return -1
		}
		return r
	}, raw)
}

// ValidateTRN checks a raw TRN string against the jurisdiction format:
// 15 digits beginning with the fixed prefix. When the cleaned value has
// exactly 15 digits the advisory check-digit hook also runs. Never panics
// and never returns an error; all findings are collected in the result.
func ValidateTRN(raw string) TRNResult {
	cleaned := CleanTRN(raw)
	result := TRNResult{Value: cleaned}

	if cleaned == "" {
		result.Errors = append(result.Errors, newError("trn_required", "trn", "TRN is required"))
		return result
	}

	if !digitsOnly.MatchString(cleaned) || len(cleaned) != trnLength {
		result.Errors = append(result.Errors, newError("trn_format",
			"trn", fmt.Sprintf("TRN must be exactly %d digits", trnLength)))
		return result
	}

	if !trnPattern.MatchString(cleaned) {
		result.Errors = append(result.Errors, newError("trn_prefix",
			"trn", fmt.Sprintf("TRN must begin with %q", trnPrefix)))
		return result
	}

	result.Valid = true

	// Advisory only: the published prefix/length rules are authoritative,
	// the check-digit algorithm is not. See TRNCheckDigitFunc.
	if TRNCheckDigitFunc != nil && !TRNCheckDigitFunc(cleaned) {
		result.Errors = append(result.Errors, newWarning("trn_check_digit",
			"trn", "TRN check digit verification failed; confirm against the online TRN lookup"))
	}

	return result
}

// FormatTRN renders a cleaned 15-digit TRN in the conventional display
// grouping XXX-XXXX-XXXXXXX-X. Anything that does not clean to exactly
// 15 digits is returned unchanged, which makes the function idempotent
// either way.
func FormatTRN(raw string) string {
	cleaned := CleanTRN(raw)
	if len(cleaned) != trnLength || !digitsOnly.MatchString(cleaned) {
		return raw
	}
	return fmt.Sprintf("%s-%s-%s-%s", cleaned[0:3], cleaned[3:7], cleaned[7:14], cleaned[14:])
}

// NationalIDResult is the outcome of national ID validation.
type NationalIDResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateNationalID checks an Emirates ID against the fixed grouping
// 784-YYYY-NNNNNNN-N (15 digits, 784 prefix). There is no check digit.
func ValidateNationalID(raw string) NationalIDResult {
	cleaned := CleanTRN(raw)
	result := NationalIDResult{}

	if cleaned == "" {
		result.Errors = append(result.Errors, newError("national_id_required",
			"nationalId", "national ID is required"))
		return result
	}

	if !nationalIDPattern.MatchString(cleaned) {
		result.Errors = append(result.Errors, newError("national_id_format",
			"nationalId", "national ID must be 15 digits beginning with 784"))
		return result
	}

	result.Valid = true
	return result
}

// luhnValid runs the Luhn algorithm over a string of digits, treating the
// last digit as the check digit.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
