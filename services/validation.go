package services

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

// MinimumAge is the youngest age accepted at signup, expressed the way it is
// checked: elapsed time since the birthdate.
const MinimumAge = 504911232000 * time.Millisecond

const (
	DefaultCountry = "Earth"
	DefaultStatus  = "New User"
)

var (
	namePattern    = regexp.MustCompile(`^[A-Za-z]+[A-Za-z0-9 _]*$`)
	countryPattern = regexp.MustCompile("^[^*|\":<>\\[\\]{}`\\\\()';@&$]+$")
	validate       = validator.New()
)

// lengthRule checks a trimmed field against inclusive bounds, counted in characters.
func lengthRule(field, value string, min, max int, unit string) error {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return utils.ValidationError("%s field is required.", field)
	}
	if n < min {
		return utils.ValidationError("%s field has to be more than or equal to %d %s.", field, min, plural(unit, min))
	}
	if n > max {
		return utils.ValidationError("%s field has to be less than or equal to %d %s.", field, max, plural(unit, max))
	}
	return nil
}

func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func validateName(name string) error {
	if err := lengthRule("Name", name, 5, 40, "character"); err != nil {
		return err
	}
	if !namePattern.MatchString(name) {
		return utils.ValidationError("Name field has to start with a letter and contain only letters, numbers and spaces.")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if err := lengthRule("Email", email, 5, 40, "character"); err != nil {
		return err
	}
	if validate.Var(email, "email") != nil {
		return utils.ValidationError("Email field has to be a valid email address.")
	}
	return nil
}

// Password length bounds, in characters.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 50
)

func validatePassword(password string) error {
	return lengthRule("Password", password, PasswordMinLength, PasswordMaxLength, "character")
}

// parseBirthdate accepts a calendar date or an RFC 3339 timestamp.
func parseBirthdate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, utils.ValidationError("Birthdate field is required.")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, utils.ValidationError("Birthdate field has to be a valid date.")
}

func validateBirthdate(birthdate, now time.Time) error {
	if now.Sub(birthdate) < MinimumAge {
		return utils.ValidationError("Birthdate field has to be more than or equal to today minus 16 years.")
	}
	return nil
}

func validateCountry(country string) error {
	if err := lengthRule("Country", country, 2, 20, "character"); err != nil {
		return err
	}
	if !countryPattern.MatchString(country) {
		return utils.ValidationError("Country field has to contain only letters and spaces.")
	}
	return nil
}

func validateStatus(status string) error {
	return lengthRule("Status", status, 2, 100, "character")
}

func validateContent(content string) error {
	return lengthRule("Content", content, 1, models.ContentMaxLength, "character")
}

// cleanContent checks the length of a post or comment body as typed, then strips
// markup. A body made only of markup counts as empty.
func cleanContent(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if err := validateContent(raw); err != nil {
		return "", err
	}
	content := cleanText(raw)
	if content == "" {
		return "", validateContent(content)
	}
	return content, nil
}

// cleanText trims and strips markup from free text.
func cleanText(s string) string {
	return strings.TrimSpace(utils.Sanitize(strings.TrimSpace(s)))
}
