package internal

import (
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lychee-technology/formlogic"
)

// DateLayout is the wire format of date answers.
const DateLayout = "02 Jan 2006"

var (
	wholeNumberPattern = regexp.MustCompile(`^\d+$`)
	mobilePattern      = regexp.MustCompile(`^\+\d{8,15}$`)
	nricPattern        = regexp.MustCompile(`^[STFGM]\d{7}[A-Z]$`)
)

var (
	nricWeights      = [7]int{2, 7, 6, 5, 4, 3, 2}
	nricCitizenTable = "JZIHGFEDCBA"
	nricForeignTable = "XWUTRQPNMLK"
	nricMSeriesTable = "KLJNPQRTUWX"
)

func validateText(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	if field.TextLength == nil {
		return nil
	}
	length := utf8.RuneCountInString(answer)
	if field.TextLength.Min > 0 && length < field.TextLength.Min {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeOutOfRange, field.ID,
			fmt.Sprintf("answer must be at least %d characters", field.TextLength.Min)).
			WithDetail("length", length)
	}
	if field.TextLength.Max > 0 && length > field.TextLength.Max {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeOutOfRange, field.ID,
			fmt.Sprintf("answer must be at most %d characters", field.TextLength.Max)).
			WithDetail("length", length)
	}
	return nil
}

func validateNumber(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	trimmed := strings.TrimSpace(answer)
	if !wholeNumberPattern.MatchString(trimmed) {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "answer must be a whole number")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "answer must be a whole number").
			WithCause(err)
	}
	return checkRange(field, value)
}

func validateDecimal(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	value, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "answer must be a decimal number")
	}
	return checkRange(field, value)
}

func checkRange(field *formlogic.FieldDefinition, value float64) *formlogic.EngineError {
	if field.NumberRange == nil {
		return nil
	}
	if field.NumberRange.Min != nil && value < *field.NumberRange.Min {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeOutOfRange, field.ID, "answer is below the minimum").
			WithDetail("min", *field.NumberRange.Min)
	}
	if field.NumberRange.Max != nil && value > *field.NumberRange.Max {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeOutOfRange, field.ID, "answer is above the maximum").
			WithDetail("max", *field.NumberRange.Max)
	}
	return nil
}

func validateDropdown(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	if slices.Contains(field.Options, answer) {
		return nil
	}
	return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidOption, field.ID, "answer is not one of the options").
		WithDetail("answer", answer)
}

func validateRadio(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	if isAllowedSelection(field, answer) {
		return nil
	}
	return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidOption, field.ID, "answer is not one of the options").
		WithDetail("answer", answer)
}

// validateCheckbox checks every selection and the selection count.
func validateCheckbox(field *formlogic.FieldDefinition, resp *formlogic.ResponseItem) *formlogic.EngineError {
	if strings.TrimSpace(resp.Answer) != "" && len(resp.AnswerArray) == 0 {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "checkbox answers must be sent as a list")
	}
	seen := NewSet[string]()
	for _, selection := range resp.AnswerArray {
		if !isAllowedSelection(field, selection) {
			return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidOption, field.ID, "selection is not one of the options").
				WithDetail("answer", selection)
		}
		if !seen.Add(selection) {
			return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidOption, field.ID, "selection is repeated").
				WithDetail("answer", selection)
		}
	}
	if limits := field.SelectionLimits; limits != nil {
		count := len(resp.AnswerArray)
		if (limits.Min > 0 && count < limits.Min) || (limits.Max > 0 && count > limits.Max) {
			return formlogic.NewInvalidAnswerError(formlogic.ErrCodeOutOfRange, field.ID, "number of selections is outside the allowed range").
				WithDetails(map[string]any{"min": limits.Min, "max": limits.Max, "count": count})
		}
	}
	return nil
}

func isAllowedSelection(field *formlogic.FieldDefinition, answer string) bool {
	if slices.Contains(field.Options, answer) {
		return true
	}
	if field.OthersOption {
		if rest, ok := strings.CutPrefix(answer, formlogic.OthersPrefix); ok && strings.TrimSpace(rest) != "" {
			return true
		}
	}
	return false
}

func validateYesNo(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	if answer == "Yes" || answer == "No" {
		return nil
	}
	return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidOption, field.ID, "answer must be Yes or No")
}

func validateRating(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	steps := field.RatingSteps
	if steps <= 0 {
		steps = 5
	}
	value, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "rating must be a whole number")
	}
	if value < 1 || value > steps {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeOutOfRange, field.ID,
			fmt.Sprintf("rating must be between 1 and %d", steps))
	}
	return nil
}

func validateDate(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	if _, err := time.Parse(DateLayout, strings.TrimSpace(answer)); err != nil {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "date must look like "+DateLayout).
			WithCause(err)
	}
	return nil
}

func validateEmail(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	trimmed := strings.TrimSpace(answer)
	address, err := mail.ParseAddress(trimmed)
	if err != nil || address.Address != trimmed {
		return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "answer is not a valid email address")
	}
	if len(field.AllowedEmailDomains) == 0 {
		return nil
	}
	_, domain, _ := strings.Cut(strings.ToLower(trimmed), "@")
	for _, allowed := range field.AllowedEmailDomains {
		if domain == strings.ToLower(strings.TrimPrefix(allowed, "@")) {
			return nil
		}
	}
	return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidOption, field.ID, "email domain is not allowed").
		WithDetail("domain", domain)
}

func validateMobile(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	if mobilePattern.MatchString(strings.TrimSpace(answer)) {
		return nil
	}
	return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "mobile number must be in international format")
}

func validateNRIC(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError {
	if isValidNRIC(strings.ToUpper(strings.TrimSpace(answer))) {
		return nil
	}
	return formlogic.NewInvalidAnswerError(formlogic.ErrCodeInvalidFormat, field.ID, "answer is not a valid NRIC or FIN")
}

// isValidNRIC verifies the check letter of a Singapore NRIC or FIN.
func isValidNRIC(value string) bool {
	if !nricPattern.MatchString(value) {
		return false
	}
	prefix := value[0]
	sum := 0
	for i, weight := range nricWeights {
		sum += int(value[i+1]-'0') * weight
	}
	switch prefix {
	case 'T', 'G':
		sum += 4
	case 'M':
		sum += 3
	}
	p := sum % 11

	var table string
	switch prefix {
	case 'S', 'T':
		table = nricCitizenTable
	case 'F', 'G':
		table = nricForeignTable
	case 'M':
		table = nricMSeriesTable
		p = 10 - p
	}
	return value[8] == table[p]
}
