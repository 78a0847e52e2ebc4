package models

import (
	"regexp"

	"github.com/go-playground/validator"
)

type MixStrategy string

const (
	MixSavedHeavy MixStrategy = "saved-heavy"
	MixBalanced   MixStrategy = "balanced"
	MixAIHeavy    MixStrategy = "ai-heavy"
)

func (m *MixStrategy) Scan(value interface{}) error {
	*m = MixStrategy(value.(string))
	return nil
}

func (m MixStrategy) Value() (string, error) {
	return string(m), nil
}

func ValidateMixStrategy(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	matched, _ := regexp.MatchString("^saved-heavy|balanced|ai-heavy$", string(value))
	return matched
}

type ExistingPolicy string

const (
	PolicySkip      ExistingPolicy = "skip"
	PolicyOverwrite ExistingPolicy = "overwrite"
)

func (p *ExistingPolicy) Scan(value interface{}) error {
	*p = ExistingPolicy(value.(string))
	return nil
}

func (p ExistingPolicy) Value() (string, error) {
	return string(p), nil
}

func ValidateExistingPolicy(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	matched, _ := regexp.MatchString("^skip|overwrite$", string(value))
	return matched
}
