package controllers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/app/repository"
	"github.com/bachesrosario/baches-api/internal/pkg/env"
	"github.com/bachesrosario/baches-api/internal/pkg/hcaptcha"
	"github.com/bachesrosario/baches-api/internal/pkg/mail"
	"github.com/bachesrosario/baches-api/internal/pkg/token"
	"github.com/bachesrosario/baches-api/internal/pkg/usercontext"
	"github.com/bachesrosario/baches-api/internal/pkg/utils"
)

// SessionTTL is the lifetime of issued bearer tokens.
const SessionTTL = 30 * 24 * time.Hour

type registerRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Name         string `json:"name" validate:"required,min=2,max=150"`
	Surname      string `json:"surname" validate:"required,min=2,max=150"`
	Age          *int   `json:"age" validate:"omitempty,min=13,max=120"`
	Sex          string `json:"sex" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	CaptchaToken string `json:"captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name    string `json:"name" validate:"omitempty,min=2,max=150"`
	Surname string `json:"surname" validate:"omitempty,min=2,max=150"`
	Email   string `json:"email" validate:"omitempty,email"`
	Age     *int   `json:"age" validate:"omitempty,min=13,max=120"`
	Sex     string `json:"sex" validate:"omitempty,oneof=male female other prefer_not_to_say"`
}

// HandleRegister creates a password-registered account and sends the
// verification email. No session is issued until the email is verified.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Malformed request body")
	}
	if err := validator.New().Struct(&req); err != nil {
		return validationError(c, err.Error())
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(req.CaptchaToken); !ok || err != nil {
			return validationError(c, "Captcha verification failed")
		}
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(req.Email); err == nil {
		return conflict(c, "An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, err)
	}

	user, err := models.CreateUser(req.Email, req.Password, req.Name, req.Surname)
	if err != nil {
		return validationError(c, err.Error())
	}
	user.Age = req.Age
	user.Sex = req.Sex
	user.ProfilePhoto = utils.GetGravatarURL(user.Email, 200)
	if err := user.GenerateVerificationToken(); err != nil {
		return internalError(c, err)
	}

	if err := repo.Create(user); err != nil {
		return internalError(c, err)
	}

	verificationURL := fmt.Sprintf("%s/api/auth/verify-email?token=%s", backendURL(), user.VerificationToken)
	if err := mail.SendVerificationMail(user.Email, user.Name, verificationURL); err != nil {
		// Account exists; the user can request a new mail later.
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":               "Registration successful, but the verification email could not be sent",
			"requires_verification": true,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":               "Registration successful. Check your email to verify your account.",
		"requires_verification": true,
	})
}

// HandleLogin verifies credentials and issues a bearer token. Unknown
// email and wrong password answer identically.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Malformed request body")
	}
	if err := validator.New().Struct(&req); err != nil {
		return validationError(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
		}
		return internalError(c, err)
	}

	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
	}

	if user.RegisterMethod == models.REGISTER_METHOD_EMAIL && !user.EmailVerified {
		return forbidden(c, "Verify your email before logging in. Check your inbox.")
	}

	jwt, err := token.Sign(user.ID, SessionTTL)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": jwt,
		"user": fiber.Map{
			"id":      user.ID,
			"email":   user.Email,
			"name":    user.Name,
			"surname": user.Surname,
			"role":    user.Role,
		},
	})
}

// HandleVerifyEmail redeems a verification token and redirects to the
// frontend with a fresh session token in the URL hash.
func HandleVerifyEmail(c *fiber.Ctx) error {
	frontend := frontendURL()
	tok := c.Query("token")
	if tok == "" {
		return c.Redirect(frontend+"/login?error=token_required", fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByVerificationToken(tok)
	if err != nil || !user.IsVerificationTokenValid(tok) {
		return c.Redirect(frontend+"/login?error=token_invalid_or_expired", fiber.StatusSeeOther)
	}

	user.EmailVerified = true
	user.ClearVerificationToken()
	if err := repo.Update(user); err != nil {
		return c.Redirect(frontend+"/login?error=verification_failed", fiber.StatusSeeOther)
	}

	jwt, err := token.Sign(user.ID, SessionTTL)
	if err != nil {
		return c.Redirect(frontend+"/login?error=verification_failed", fiber.StatusSeeOther)
	}

	return c.Redirect(frontend+"/login#token="+url.QueryEscape(jwt), fiber.StatusSeeOther)
}

// HandleGetMe returns the authenticated user's record.
func HandleGetMe(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, err)
	}
	return c.JSON(user)
}

// HandleUpdateProfile updates the authenticated user's own fields.
// Email changes are checked for uniqueness.
func HandleUpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Malformed request body")
	}
	if err := validator.New().Struct(&req); err != nil {
		return validationError(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, err)
	}

	if err := applyUserUpdate(repo, user, req.Name, req.Surname, req.Email, req.Age, req.Sex); err != nil {
		if errors.Is(err, errEmailTaken) {
			return conflict(c, "The email is already in use")
		}
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}

var errEmailTaken = errors.New("email already in use")

// applyUserUpdate applies the optional profile fields shared by the
// self-service and admin update endpoints.
func applyUserUpdate(repo repository.UserRepository, user *models.User, name, surname, email string, age *int, sex string) error {
	if email != "" && models.NormalizeEmail(email) != user.Email {
		taken, err := repo.EmailTaken(email, user.ID)
		if err != nil {
			return err
		}
		if taken {
			return errEmailTaken
		}
		user.Email = models.NormalizeEmail(email)
	}
	if name != "" {
		user.Name = name
	}
	if surname != "" {
		user.Surname = surname
	}
	if age != nil {
		user.Age = age
	}
	if sex != "" {
		user.Sex = sex
	}
	return repo.Update(user)
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleForgotPassword issues a reset token. The response is identical
// whether or not the account exists.
func HandleForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Malformed request body")
	}
	if err := validator.New().Struct(&req); err != nil {
		return validationError(c, err.Error())
	}

	response := fiber.Map{"message": "If the account exists, a reset email was sent"}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(response)
		}
		return internalError(c, err)
	}
	if user.Password == "" {
		// Google accounts have no password to reset.
		return c.JSON(response)
	}

	if err := user.GenerateResetToken(); err != nil {
		return internalError(c, err)
	}
	if err := repo.Update(user); err != nil {
		return internalError(c, err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", frontendURL(), user.ResetToken)
	_ = mail.SendPasswordResetMail(user.Email, user.Name, resetURL)

	return c.JSON(response)
}

// HandleResetPassword redeems a reset token and sets the new password.
func HandleResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Malformed request body")
	}
	if err := validator.New().Struct(&req); err != nil {
		return validationError(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByResetToken(req.Token)
	if err != nil || !user.IsResetTokenValid(req.Token) {
		return validationError(c, "Invalid or expired reset token")
	}

	if err := user.SetPassword(req.Password); err != nil {
		return internalError(c, err)
	}
	user.ClearResetToken()
	if err := repo.Update(user); err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated. You can log in now."})
}

func backendURL() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "3001")
	}
	return base
}

func frontendURL() string {
	return strings.TrimRight(env.GetEnv("FRONTEND_URL", "http://localhost:5173"), "/")
}
