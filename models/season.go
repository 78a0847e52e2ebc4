package models

import (
	"regexp"

	"github.com/go-playground/validator"
)

type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
	SeasonWinter Season = "Winter"
)

func (s *Season) Scan(value interface{}) error {
	*s = Season(value.(string))
	return nil
}

func (s Season) Value() (string, error) {
	return string(s), nil
}

func ValidateSeason(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	matched, _ := regexp.MatchString("^Spring|Summer|Fall|Winter$", string(value))
	return matched
}

func ValidateSeasonRaw(value string) bool {
	matched, _ := regexp.MatchString("^Spring|Summer|Fall|Winter$", value)
	return matched
}
