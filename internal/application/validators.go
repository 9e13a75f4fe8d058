package application

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// registerCustomValidators registers validation functions used by struct
// tags in Config.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("envname", validateEnvName); err != nil {
		return fmt.Errorf("failed to register envname validator: %w", err)
	}
	return nil
}

// validateEnvName accepts portable environment variable names.
func validateEnvName(fl validator.FieldLevel) bool {
	return envNamePattern.MatchString(fl.Field().String())
}

var (
	registryOnce sync.Once
	registryErr  error
)

// ValidateRegistry checks every registered role against its struct tags
// and checks that markers are distinct and prefix-free under case folding.
// The registry is static, so the result is computed once.
func ValidateRegistry() error {
	registryOnce.Do(func() {
		registryErr = validateRoles(validator.New(), domain.AllRoles())
	})
	return registryErr
}

func validateRoles(v *validator.Validate, roles []domain.Role) error {
	verr := domain.NewValidationError("role registry")

	for _, r := range roles {
		if err := v.Struct(r); err != nil {
			verr.AddError(fmt.Sprintf("%s: %v", r.Name, err))
		}
	}

	for i, a := range roles {
		for j, b := range roles {
			if i == j {
				continue
			}
			ua, ub := strings.ToUpper(a.Marker), strings.ToUpper(b.Marker)
			if strings.HasPrefix(ua, ub) {
				verr.AddError(fmt.Sprintf("marker %q of %s collides with marker %q of %s",
					a.Marker, a.Name, b.Marker, b.Name))
			}
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
