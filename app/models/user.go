package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"

	REGISTER_METHOD_EMAIL  = "email"
	REGISTER_METHOD_GOOGLE = "google"

	SEX_MALE        = "male"
	SEX_FEMALE      = "female"
	SEX_OTHER       = "other"
	SEX_UNDISCLOSED = "prefer_not_to_say"
)

// VerificationTokenTTL is how long an email verification link stays valid.
const VerificationTokenTTL = 24 * time.Hour

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = time.Hour

type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Email               string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password            string         `gorm:"type:text" json:"-"`
	Name                string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Surname             string         `gorm:"type:varchar(150)" json:"surname" validate:"required,min=2,max=150"`
	Age                 *int           `gorm:"type:int;default:null" json:"age,omitempty" validate:"omitempty,min=13,max=120"`
	Sex                 string         `gorm:"type:varchar(30);default:null" json:"sex,omitempty" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	Role                string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	GoogleID            *string        `gorm:"type:varchar(100);uniqueIndex;default:null" json:"-"`
	ProfilePhoto        string         `gorm:"type:varchar(255);default:null" json:"profile_photo,omitempty"`
	RegisterMethod      string         `gorm:"type:varchar(20);default:'email'" json:"register_method" validate:"oneof=email google"`
	EmailVerified       bool           `gorm:"default:false" json:"email_verified"`
	VerificationToken   string         `gorm:"type:varchar(100);index;default:null" json:"-"`
	VerificationExpires *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	ResetToken          string         `gorm:"type:varchar(100);index;default:null" json:"-"`
	ResetExpires        *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a password-registered user. The account stays
// unverified until the email verification token is redeemed.
func CreateUser(email, password, name, surname string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:          NormalizeEmail(email),
		Password:       pw,
		Name:           name,
		Surname:        surname,
		Role:           ROLE_USER,
		RegisterMethod: REGISTER_METHOD_EMAIL,
		EmailVerified:  false,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

// NormalizeEmail lowercases and trims an address for the unique index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies the provided password against the stored hash.
// Google accounts carry no password and always fail the check.
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// GenerateVerificationToken creates a random email verification token
// and stamps its expiry.
func (u *User) GenerateVerificationToken() error {
	tok, err := randomToken()
	if err != nil {
		return err
	}
	u.VerificationToken = tok
	expires := time.Now().Add(VerificationTokenTTL)
	u.VerificationExpires = &expires
	return nil
}

// IsVerificationTokenValid checks the given token against the stored one
// and its expiry window.
func (u *User) IsVerificationTokenValid(tok string) bool {
	if u.VerificationToken == "" || u.VerificationExpires == nil {
		return false
	}
	if u.VerificationToken != tok {
		return false
	}
	return time.Now().Before(*u.VerificationExpires)
}

// ClearVerificationToken clears the verification token fields.
func (u *User) ClearVerificationToken() {
	u.VerificationToken = ""
	u.VerificationExpires = nil
}

// GenerateResetToken creates a random password reset token with expiry.
func (u *User) GenerateResetToken() error {
	tok, err := randomToken()
	if err != nil {
		return err
	}
	u.ResetToken = tok
	expires := time.Now().Add(ResetTokenTTL)
	u.ResetExpires = &expires
	return nil
}

// IsResetTokenValid checks the password reset token and its expiry.
func (u *User) IsResetTokenValid(tok string) bool {
	if u.ResetToken == "" || u.ResetExpires == nil {
		return false
	}
	if u.ResetToken != tok {
		return false
	}
	return time.Now().Before(*u.ResetExpires)
}

// ClearResetToken clears the password reset token fields.
func (u *User) ClearResetToken() {
	u.ResetToken = ""
	u.ResetExpires = nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
