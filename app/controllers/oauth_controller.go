package controllers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/app/repository"
	"github.com/bachesrosario/baches-api/internal/pkg/token"
)

// HandleGoogleAuthURL hands the provider's authorization URL to the SPA.
func HandleGoogleAuthURL(c *fiber.Ctx) error {
	authURL, err := gothfiber.GetAuthURL(c)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"auth_url": authURL})
}

// HandleGoogleLogin redirects straight to the provider's consent page.
func HandleGoogleLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleGoogleCallback completes the OAuth exchange, links or creates
// the account, and redirects to the frontend with a session token in
// the URL hash so it never shows up in referrers or logs.
func HandleGoogleCallback(c *fiber.Ctx) error {
	gothUser, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Redirect(frontendURL()+"/login?error=oauth_failed", fiber.StatusSeeOther)
	}
	if gothUser.Email == "" {
		return c.Redirect(frontendURL()+"/login?error=oauth_no_email", fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmailOrGoogleID(gothUser.Email, gothUser.UserID)
	switch {
	case err == nil:
		// Existing account: link the provider id on first OAuth login.
		if user.GoogleID == nil {
			googleID := gothUser.UserID
			user.GoogleID = &googleID
			user.RegisterMethod = models.REGISTER_METHOD_GOOGLE
			user.EmailVerified = true
			if gothUser.AvatarURL != "" {
				user.ProfilePhoto = gothUser.AvatarURL
			}
			if err := repo.Update(user); err != nil {
				return internalError(c, err)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = newGoogleUser(gothUser.Email, gothUser.UserID, gothUser.FirstName, gothUser.LastName, gothUser.AvatarURL)
		if err := repo.Create(user); err != nil {
			return internalError(c, err)
		}
	default:
		return internalError(c, err)
	}

	jwt, err := token.Sign(user.ID, SessionTTL)
	if err != nil {
		return internalError(c, err)
	}

	redirect := frontendURL() + "/auth/google/callback#token=" + url.QueryEscape(jwt)
	return c.Redirect(redirect, fiber.StatusSeeOther)
}

// newGoogleUser builds a pre-verified account from the identity
// assertion. Missing name parts fall back to the email local part.
func newGoogleUser(email, googleID, firstName, lastName, avatarURL string) *models.User {
	name := firstName
	if name == "" {
		name = strings.SplitN(models.NormalizeEmail(email), "@", 2)[0]
	}
	surname := lastName
	if surname == "" {
		surname = "User"
	}

	return &models.User{
		Email:          models.NormalizeEmail(email),
		GoogleID:       &googleID,
		Name:           name,
		Surname:        surname,
		Role:           models.ROLE_USER,
		RegisterMethod: models.REGISTER_METHOD_GOOGLE,
		EmailVerified:  true,
		ProfilePhoto:   avatarURL,
	}
}
