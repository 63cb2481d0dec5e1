package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/auth"
	"github.com/sparebite/sparebite-backend/pkg/auth/session"
	"github.com/sparebite/sparebite-backend/pkg/config"
	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/geo"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/security"
)

const minPasswordLength = 8

type identityRepository interface {
	CreateAuthUser(ctx context.Context, user *models.AuthUser) error
	FindAuthUserByEmail(ctx context.Context, email string) (*models.AuthUser, error)
	FindAuthUserByID(ctx context.Context, id uuid.UUID) (*models.AuthUser, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	FindProfileByAuthUser(ctx context.Context, authUserID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	CreateMerchant(ctx context.Context, merchant *models.Merchant) error
	FindMerchantByAuthUser(ctx context.Context, authUserID uuid.UUID) (*models.Merchant, error)
	UpdateMerchant(ctx context.Context, merchant *models.Merchant) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes account and principal operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResultDTO, error)
	Login(ctx context.Context, input LoginInput) (*AuthResultDTO, error)
	Logout(ctx context.Context, accessID string) error

	// ResolveRole maps an auth user to its acting role. Lookup failures
	// resolve to RoleNone so a degraded database never locks principals
	// into a wrong role.
	ResolveRole(ctx context.Context, authUserID uuid.UUID) enums.Role

	EnsureProfile(ctx context.Context, authUserID uuid.UUID) (*ProfileDTO, error)
	GetProfile(ctx context.Context, authUserID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, authUserID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	UpdateLocation(ctx context.Context, authUserID uuid.UUID, latitude, longitude float64) (*ProfileDTO, error)
	SetPushToken(ctx context.Context, authUserID uuid.UUID, role enums.Role, token string) error

	GetMerchant(ctx context.Context, authUserID uuid.UUID) (*MerchantDTO, error)
	UpdateMerchant(ctx context.Context, authUserID uuid.UUID, input UpdateMerchantInput) (*MerchantDTO, error)
}

type service struct {
	repo        identityRepository
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds an identity service with the provided dependencies.
func NewService(repo identityRepository, sessions sessionManager, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResultDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if input.Role != enums.RoleClient && input.Role != enums.RoleMerchant {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be client or merchant")
	}
	if input.Role == enums.RoleMerchant {
		if strings.TrimSpace(input.CompanyName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name is required")
		}
		if input.Latitude == nil || input.Longitude == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant coordinates are required")
		}
		if !(geo.Point{Latitude: *input.Latitude, Longitude: *input.Longitude}).Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
		}
	}

	if _, err := s.repo.FindAuthUserByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup email")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.AuthUser{
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.repo.CreateAuthUser(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create auth user")
	}

	result := &AuthResultDTO{Role: input.Role}

	switch input.Role {
	case enums.RoleClient:
		profile, err := s.repo.UpsertProfile(ctx, &models.Profile{
			AuthUserID:  user.ID,
			DisplayName: strings.TrimSpace(input.DisplayName),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
		}
		result.Profile = ProfileFromModel(profile)

	case enums.RoleMerchant:
		tz := strings.TrimSpace(input.Timezone)
		if tz == "" {
			tz = "UTC"
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid timezone")
		}
		merchant := &models.Merchant{
			AuthUserID:  user.ID,
			CompanyName: strings.TrimSpace(input.CompanyName),
			Latitude:    *input.Latitude,
			Longitude:   *input.Longitude,
			Timezone:    tz,
		}
		if err := s.repo.CreateMerchant(ctx, merchant); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
		}
		result.Merchant = MerchantFromModel(merchant)
	}

	access, refresh, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	result.AccessToken = access
	result.RefreshToken = refresh
	return result, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResultDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindAuthUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup email")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	result := &AuthResultDTO{Role: user.Role}
	switch user.Role {
	case enums.RoleClient:
		profile, err := s.EnsureProfile(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Profile = profile
	case enums.RoleMerchant:
		merchant, err := s.GetMerchant(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Merchant = merchant
	}

	access, refresh, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	result.AccessToken = access
	result.RefreshToken = refresh
	return result, nil
}

func (s *service) issueSession(ctx context.Context, user *models.AuthUser) (string, string, error) {
	jti := session.NewAccessID()
	access, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		AuthUserID: user.ID,
		Role:       user.Role,
		JTI:        jti,
	})
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := s.sessions.Generate(ctx, jti)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return access, refresh, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) ResolveRole(ctx context.Context, authUserID uuid.UUID) enums.Role {
	if authUserID == uuid.Nil {
		return enums.RoleNone
	}
	user, err := s.repo.FindAuthUserByID(ctx, authUserID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"auth_user_id": authUserID.String(),
				"error":        err.Error(),
			}), "role lookup failed, degrading to none")
		}
		return enums.RoleNone
	}
	if user.Role != enums.RoleClient && user.Role != enums.RoleMerchant {
		return enums.RoleNone
	}
	return user.Role
}

func (s *service) EnsureProfile(ctx context.Context, authUserID uuid.UUID) (*ProfileDTO, error) {
	if authUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth user id is required")
	}
	profile, err := s.repo.UpsertProfile(ctx, &models.Profile{AuthUserID: authUserID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure profile")
	}
	return ProfileFromModel(profile), nil
}

func (s *service) GetProfile(ctx context.Context, authUserID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.findProfile(ctx, authUserID)
	if err != nil {
		return nil, err
	}
	return ProfileFromModel(profile), nil
}

func (s *service) UpdateProfile(ctx context.Context, authUserID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	profile, err := s.findProfile(ctx, authUserID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		trimmed := strings.TrimSpace(*input.DisplayName)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name cannot be empty")
		}
		profile.DisplayName = trimmed
	}
	if input.AvatarURL != nil {
		profile.AvatarURL = input.AvatarURL
	}
	if input.Dietary != nil {
		profile.Dietary = *input.Dietary
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return ProfileFromModel(profile), nil
}

func (s *service) UpdateLocation(ctx context.Context, authUserID uuid.UUID, latitude, longitude float64) (*ProfileDTO, error) {
	point := geo.Point{Latitude: latitude, Longitude: longitude}
	if !point.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	profile, err := s.findProfile(ctx, authUserID)
	if err != nil {
		return nil, err
	}

	profile.Latitude = &latitude
	profile.Longitude = &longitude
	profile.HasLocation = true

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location")
	}
	return ProfileFromModel(profile), nil
}

func (s *service) SetPushToken(ctx context.Context, authUserID uuid.UUID, role enums.Role, token string) error {
	trimmed := strings.TrimSpace(token)
	var stored *string
	if trimmed != "" {
		stored = &trimmed
	}

	switch role {
	case enums.RoleClient:
		profile, err := s.findProfile(ctx, authUserID)
		if err != nil {
			return err
		}
		profile.PushToken = stored
		if err := s.repo.UpdateProfile(ctx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store push token")
		}
		return nil

	case enums.RoleMerchant:
		merchant, err := s.findMerchant(ctx, authUserID)
		if err != nil {
			return err
		}
		merchant.PushToken = stored
		if err := s.repo.UpdateMerchant(ctx, merchant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store push token")
		}
		return nil
	}

	return pkgerrors.New(pkgerrors.CodeForbidden, "principal cannot hold a push token")
}

func (s *service) GetMerchant(ctx context.Context, authUserID uuid.UUID) (*MerchantDTO, error) {
	merchant, err := s.findMerchant(ctx, authUserID)
	if err != nil {
		return nil, err
	}
	return MerchantFromModel(merchant), nil
}

func (s *service) UpdateMerchant(ctx context.Context, authUserID uuid.UUID, input UpdateMerchantInput) (*MerchantDTO, error) {
	merchant, err := s.findMerchant(ctx, authUserID)
	if err != nil {
		return nil, err
	}

	if input.CompanyName != nil {
		trimmed := strings.TrimSpace(*input.CompanyName)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name cannot be empty")
		}
		merchant.CompanyName = trimmed
	}
	if input.AddressLine != nil {
		merchant.AddressLine = input.AddressLine
	}
	if input.District != nil {
		merchant.District = input.District
	}
	if input.City != nil {
		merchant.City = input.City
	}
	if input.LogoURL != nil {
		merchant.LogoURL = input.LogoURL
	}
	if input.Timezone != nil {
		tz := strings.TrimSpace(*input.Timezone)
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid timezone")
		}
		merchant.Timezone = tz
	}

	if err := s.repo.UpdateMerchant(ctx, merchant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update merchant")
	}
	return MerchantFromModel(merchant), nil
}

func (s *service) findProfile(ctx context.Context, authUserID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.FindProfileByAuthUser(ctx, authUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

func (s *service) findMerchant(ctx context.Context, authUserID uuid.UUID) (*models.Merchant, error) {
	merchant, err := s.repo.FindMerchantByAuthUser(ctx, authUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	return merchant, nil
}
