package api

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/identity"
	"github.com/illegalcall/inkgen/internal/models"
)

const userLocalKey = "user"

// requireUser resolves the bearer token and stores the user in Locals.
func (s *Server) requireUser(c *fiber.Ctx) error {
	token, ok := identity.BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return s.fail(c, apperror.Unauthenticated("missing bearer token"))
	}

	user, err := s.deps.Identity.Resolve(c.UserContext(), token)
	if err != nil {
		return s.fail(c, err)
	}

	c.Locals(userLocalKey, user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals(userLocalKey).(models.User)
	return user
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("image_payload", validImagePayload); err != nil {
		panic(fmt.Sprintf("register image_payload validation: %v", err))
	}
	return v
}

// validImagePayload accepts a base64 data URI or an absolute http(s) URL.
func validImagePayload(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if strings.HasPrefix(value, "data:image/") {
		_, data, found := strings.Cut(value, ";base64,")
		return found && data != ""
	}
	u, err := url.Parse(value)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseBody decodes and validates the JSON body into out.
func (s *Server) parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.InvalidInput("Invalid request body")
	}
	if err := s.validate.Struct(out); err != nil {
		return apperror.InvalidInput(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fe.Field() + " must be a valid email address"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "image_payload":
		return fe.Field() + " must be a base64 data URI or an http(s) URL"
	default:
		return fe.Field() + " is invalid"
	}
}
