package validator

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var prefixRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// directoryValidator accepts paths without parent directory elements.
func directoryValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	if strings.ContainsRune(val, 0) {
		return false
	}
	for _, elem := range strings.Split(filepath.ToSlash(val), "/") {
		if elem == ".." {
			return false
		}
	}
	return true
}

func prefixValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return prefixRegex.MatchString(val)
}
