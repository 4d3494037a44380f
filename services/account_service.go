package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/socialbbs/config"
	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/repository"
	"github.com/cppla/socialbbs/storage"
	"github.com/cppla/socialbbs/utils"
)

const (
	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = 10 * time.Minute
	// ResetCooldown throttles reset mails per address.
	ResetCooldown = time.Minute
)

// AccountService manages signup, sessions, profiles and passwords.
type AccountService struct {
	db       *gorm.DB
	assets   storage.AssetStore
	notifier Notifier
	cfg      config.AppConfig
	now      func() time.Time
}

func NewAccountService(db *gorm.DB, assets storage.AssetStore, notifier Notifier, cfg config.AppConfig) *AccountService {
	return &AccountService{db: db, assets: assets, notifier: notifier, cfg: cfg, now: time.Now}
}

func (s *AccountService) users(ctx context.Context) *repository.UserRepository {
	return repository.NewUserRepository(s.db.WithContext(ctx))
}

// DefaultImage is the profile image assigned at signup.
func (s *AccountService) DefaultImage() string {
	return strings.TrimRight(s.cfg.UsersImageBaseURL, "/") + "/default.png"
}

// SignupInput carries the signup form.
type SignupInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Birthdate string `json:"birthdate"`
	Country   string `json:"country"`
	Status    string `json:"status"`
}

// Signup validates the form, creates the account and sends a welcome message.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	password := strings.TrimSpace(in.Password)
	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = DefaultCountry
	}
	status := cleanText(in.Status)
	if status == "" {
		status = DefaultStatus
	}

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	birthdate, err := parseBirthdate(in.Birthdate)
	if err != nil {
		return nil, err
	}
	if err := validateBirthdate(birthdate, s.now()); err != nil {
		return nil, err
	}
	if err := validateCountry(country); err != nil {
		return nil, err
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	users := s.users(ctx)
	taken, err := users.EmailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, duplicateEmail(email)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Birthdate:    birthdate,
		Country:      country,
		Status:       status,
		Image:        s.DefaultImage(),
		Role:         models.RoleUser,
	}
	if err := users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateEmail(email)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, user, NotifyWelcome, nil)
	return user, nil
}

func duplicateEmail(email string) error {
	return utils.Conflict(fmt.Sprintf("Duplicate field value (%s).", email))
}

// Signin checks credentials and issues a session token.
func (s *AccountService) Signin(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, "", utils.ValidationError("Email and Password fields are required for user authentication.")
	}
	user, err := s.users(ctx).FindActiveByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, "", utils.Unauthorized("Incorrect Email or Password.")
	}
	token, err := utils.GenerateToken(user.ID, user.PasswordChange.Epoch, s.tokenTTL())
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AccountService) tokenTTL() time.Duration {
	return time.Duration(s.cfg.JWTExpiresHours) * time.Hour
}

// Authenticate resolves a bearer token to its active user. Tokens issued before
// the last password change are rejected.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error) {
	if utils.IsTokenBlacklisted(token) {
		return nil, nil, utils.Unauthorized("User authentication token has been revoked.")
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, nil, utils.Unauthorized("User authentication token is expired.")
		}
		return nil, nil, utils.Unauthorized("User authentication failed.")
	}
	user, err := s.users(ctx).FindActiveByID(claims.UserID)
	if err != nil {
		return nil, nil, orNotFound(err, utils.NotFound("No user is associated with this authentication token."))
	}
	if subtle.ConstantTimeCompare([]byte(claims.PasswordEpoch), []byte(user.PasswordChange.Epoch)) != 1 {
		return nil, nil, utils.Unauthorized("Authentication token is no longer valid because user has changed password.")
	}
	return user, claims, nil
}

// Logout revokes token until it would have expired anyway.
func (s *AccountService) Logout(claims *utils.Claims, token string) {
	expiresAt := s.now().Add(s.tokenTTL())
	if claims != nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)
}

// GetUser returns an active user.
func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users(ctx).FindActiveByID(id)
	if err != nil {
		return nil, orNotFound(err, userNotFound(id))
	}
	return user, nil
}

// ListUsers returns every active user, newest first.
func (s *AccountService) ListUsers(ctx context.Context, page utils.Page) ([]models.User, error) {
	return s.users(ctx).ListActive(page)
}

// UpdateUserInput carries a profile patch. Nil fields are left unchanged.
type UpdateUserInput struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Birthdate *string `json:"birthdate"`
	Country   *string `json:"country"`
	Status    *string `json:"status"`
	Image     *string `json:"image"`
}

// UpdateUser applies a profile patch. An uploaded image replaces the image field.
func (s *AccountService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput, image *multipart.FileHeader) (*models.User, error) {
	users := s.users(ctx)
	user, err := users.FindActiveByID(id)
	if err != nil {
		return nil, orNotFound(err, userNotFound(id))
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			taken, err := users.EmailTaken(email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, duplicateEmail(email)
			}
		}
		fields["email"] = email
	}
	if in.Birthdate != nil {
		birthdate, err := parseBirthdate(*in.Birthdate)
		if err != nil {
			return nil, err
		}
		if err := validateBirthdate(birthdate, s.now()); err != nil {
			return nil, err
		}
		fields["birthdate"] = birthdate
	}
	if in.Country != nil {
		country := strings.TrimSpace(*in.Country)
		if err := validateCountry(country); err != nil {
			return nil, err
		}
		fields["country"] = country
	}
	if in.Status != nil {
		status := cleanText(*in.Status)
		if err := validateStatus(status); err != nil {
			return nil, err
		}
		fields["status"] = status
	}
	if in.Image != nil {
		img := strings.TrimSpace(*in.Image)
		if img == "" {
			return nil, utils.ValidationError("Image field is required.")
		}
		fields["image"] = img
	}

	var uploaded string
	if image != nil {
		uploaded, err = s.assets.Upload(ctx, "users", image)
		if err != nil {
			return nil, imageError(err)
		}
		fields["image"] = uploaded
	}

	if len(fields) == 0 {
		return user, nil
	}
	if err := users.UpdateFields(id, fields); err != nil {
		removeAsset(s.assets, uploaded)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateEmail(fmt.Sprint(fields["email"]))
		}
		return nil, err
	}
	if uploaded != "" && user.Image != s.DefaultImage() {
		removeAsset(s.assets, user.Image)
	}
	return users.FindActiveByID(id)
}

// Deactivate soft deletes the account. Its content stays in place.
func (s *AccountService) Deactivate(ctx context.Context, id uint) error {
	users := s.users(ctx)
	if ok, err := users.ExistsActive(id); err != nil {
		return err
	} else if !ok {
		return userNotFound(id)
	}
	return users.Deactivate(id)
}

// UpdatePassword changes the password after checking the current one. Existing
// sessions stop validating.
func (s *AccountService) UpdatePassword(ctx context.Context, id uint, current, password string) error {
	users := s.users(ctx)
	user, err := users.FindActiveByID(id)
	if err != nil {
		return orNotFound(err, userNotFound(id))
	}
	if !utils.CheckPassword(user.PasswordHash, strings.TrimSpace(current)) {
		return utils.Unauthorized("Incorrect current password.")
	}
	return s.setPassword(users, id, password)
}

func (s *AccountService) setPassword(users *repository.UserRepository, id uint, password string) error {
	password = strings.TrimSpace(password)
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	return users.SetPassword(id, hash, uuid.NewString())
}

// ForgotPassword stores a fresh reset token and mails the links carrying it.
// apiBaseURL is the scheme and host the request came in on.
func (s *AccountService) ForgotPassword(ctx context.Context, email, apiBaseURL string) error {
	email = normalizeEmail(email)
	if email == "" {
		return utils.ValidationError("Email field is required.")
	}
	users := s.users(ctx)
	user, err := users.FindActiveByEmail(email)
	if err != nil {
		return orNotFound(err, utils.NotFound("No user found with this email '%s'.", email))
	}
	if !utils.EmailCooldownTrySet(email, ResetCooldown) {
		return utils.TooManyRequests("Password reset URL was sent recently. Please check your email or try again later.")
	}

	token, digest, err := utils.NewResetToken()
	if err != nil {
		utils.CooldownReset("email", email)
		return err
	}
	if err := users.SetResetToken(user.ID, digest, s.now().Add(ResetTokenTTL)); err != nil {
		utils.CooldownReset("email", email)
		return err
	}

	s.notifier.Notify(ctx, user, NotifyPasswordReset, map[string]string{
		"url":       strings.TrimRight(apiBaseURL, "/") + "/api/v1/users/resetPassword/" + token,
		"clientUrl": strings.TrimRight(s.cfg.ClientHost, "/") + "/resetpassword/" + token,
	})
	return nil
}

// ResetPassword sets a new password when token matches the stored, unexpired digest.
func (s *AccountService) ResetPassword(ctx context.Context, token, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return utils.ValidationError("Email field is required.")
	}
	users := s.users(ctx)
	user, err := users.FindActiveByEmail(email)
	if err != nil {
		return orNotFound(err, utils.NotFound("No user found with this email '%s'.", email))
	}
	pc := user.PasswordChange
	valid := pc.Token != "" &&
		pc.ExpiresAt != nil && pc.ExpiresAt.After(s.now()) &&
		subtle.ConstantTimeCompare([]byte(utils.HashResetToken(token)), []byte(pc.Token)) == 1
	if !valid {
		return utils.Unauthorized("Password reset token is not valid or has expired.")
	}
	return s.setPassword(users, user.ID, password)
}
