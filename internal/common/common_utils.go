package common

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/constants"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// NormalizeDistrictCode trims the code. An empty result means no district.
func NormalizeDistrictCode(code string) string {
	return strings.TrimSpace(code)
}

// NormalizeDistrictName trims the name and caps it at the column width.
func NormalizeDistrictName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= constants.DistrictNameMaxLength {
		return name
	}
	return string([]rune(name)[:constants.DistrictNameMaxLength])
}

// NormalizePartyName collapses runs of whitespace and checks the length.
// An empty name is allowed and means the party is unnamed.
func NormalizePartyName(name string) (string, error) {
	collapsed := strings.Join(strings.Fields(name), " ")
	if collapsed == "" {
		return "", nil
	}
	rule := fmt.Sprintf("min=%d,max=%d", constants.PartyNameMinLength, constants.PartyNameMaxLength)
	if err := validate.Var(collapsed, rule); err != nil {
		return "", apperror.Validation(constants.ErrCodeInvalidPartyName)
	}
	return collapsed, nil
}

// GeneratePartyCode draws random codes until exists reports a free one.
func GeneratePartyCode(exists func(code string) (bool, error)) (string, error) {
	for i := 0; i < constants.PartyCodeGenerateAttempts; i++ {
		code, err := gonanoid.Generate(constants.PartyCodeAlphabet, constants.PartyCodeLength)
		if err != nil {
			return "", fmt.Errorf("generate party code: %w", err)
		}
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate party code: no free code after %d attempts", constants.PartyCodeGenerateAttempts)
}
