package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest parses the request body into out and runs struct
// validation, returning a 400-shaped error message on failure.
func ValidateRequest(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := validate.Struct(out); err != nil {
		var issues []string
		for _, fieldErr := range err.(validator.ValidationErrors) {
			issues = append(issues, fmt.Sprintf("%s failed on %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("validation failed: %s", strings.Join(issues, ", "))
	}

	return nil
}
