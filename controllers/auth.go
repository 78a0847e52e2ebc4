package controllers

import (
	"fmt"
	"net/http"

	"closetapi/models"
	"closetapi/services"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type GoogleAuthSignIn struct {
	IdToken  string `json:"idToken" validate:"required"`
	Platform string `json:"platform" validate:"required,platform"`
}

type AppleAuthRequest struct {
	IdentityToken     string `json:"identity_token" validate:"required"`
	AuthorizationCode string `json:"authorization_code" validate:"required"`
	Platform          string `json:"platform" validate:"required,platform"`
	Name              string `json:"name"`
}

type SignInOut struct {
	Id           string  `json:"id"`
	Email        string  `json:"email"`
	New          bool    `json:"new"`
	Avatar       string  `json:"avatar"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	Subscription *string `json:"subscription"`
}

type UserMeOut struct {
	Id                   string  `json:"id"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	AvatarURL            string  `json:"avatar_url"`
	Hemisphere           string  `json:"hemisphere"`
	Subscription         *string `json:"subscription"`
	ReceiveNotifications bool    `json:"receive_notifications"`
}

type AuthController struct {
	Google      services.GoogleServiceProvider
	Apple       services.AppleServiceProvider
	FirebaseApp *firebase.App
}

func (controller *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/google", controller.GoogleSignIn)
	g.POST("/apple", controller.AppleSignIn)
}

// ProfileRoutes are mounted behind JWT, see SetupServer.
func (controller *AuthController) ProfileRoutes(g *echo.Group) {
	g.GET("/me", controller.Me)
	g.POST("/push-token", controller.RegisterPushToken)
	g.POST("/settings", controller.UpdateSettings)
}

func (controller *AuthController) GoogleSignIn(c echo.Context) error {
	var req GoogleAuthSignIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	audience := services.GetEnv("GOOGLE_AUDIENCE", "")
	payload, err := controller.Google.ValidateIdToken(c.Request().Context(), req.IdToken, audience)
	if err != nil {
		fmt.Println("Invalid google id token", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	var user models.UserAccount
	isNew := false
	result := db.Where("google_id = ? OR email = ?", payload.Subject, email).Take(&user)
	if result.Error == gorm.ErrRecordNotFound {
		isNew = true
		user = models.UserAccount{
			Name:      name,
			Email:     email,
			GoogleID:  payload.Subject,
			Platform:  models.ScanPlatform(req.Platform),
			Status:    "FINISHED_AUTH",
			AvatarURL: picture,
			LastIp:    c.RealIP(),
		}
		if err := db.Create(&user).Error; err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create account"})
		}
	} else if result.Error != nil {
		sentry.CaptureException(result.Error)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to sign in"})
	} else {
		user.LastIp = c.RealIP()
		db.Save(&user)
	}

	return c.JSON(http.StatusOK, controller.signInResponse(c, user, isNew))
}

func (controller *AuthController) AppleSignIn(c echo.Context) error {
	var req AppleAuthRequest
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	_, appleID, err := controller.Apple.VerifyIdentityToken(c.Request().Context(), req.AuthorizationCode)
	if err != nil {
		fmt.Println("Invalid apple identity token", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
	}

	var user models.UserAccount
	isNew := false
	result := db.Where("apple_id = ?", appleID).Take(&user)
	if result.Error == gorm.ErrRecordNotFound {
		isNew = true
		user = models.UserAccount{
			Name:     req.Name,
			AppleID:  appleID,
			Email:    fmt.Sprintf("%s@privaterelay.appleid.com", appleID),
			Platform: models.ScanPlatform(req.Platform),
			Status:   "FINISHED_AUTH",
			LastIp:   c.RealIP(),
		}
		if err := db.Create(&user).Error; err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create account"})
		}
	} else if result.Error != nil {
		sentry.CaptureException(result.Error)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to sign in"})
	}

	return c.JSON(http.StatusOK, controller.signInResponse(c, user, isNew))
}

func (controller *AuthController) signInResponse(c echo.Context, user models.UserAccount, isNew bool) SignInOut {
	refreshToken, err := GenerateRefreshToken(UIntToStr(user.ID))
	if err != nil {
		c.Logger().Errorf("Error generating refresh token for %v: %s", user.ID, err)
	}
	return SignInOut{
		Id:           UIntToStr(user.ID),
		Email:        user.Email,
		New:          isNew,
		Avatar:       user.AvatarURL,
		AccessToken:  GenerateUserToken(UIntToStr(user.ID), c, 72),
		RefreshToken: refreshToken,
		Subscription: user.Subscription,
	}
}

func (controller *AuthController) Me(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	return c.JSON(http.StatusOK, UserMeOut{
		Id:                   UIntToStr(user.ID),
		Name:                 user.Name,
		Email:                user.Email,
		AvatarURL:            user.AvatarURL,
		Hemisphere:           user.Hemisphere,
		Subscription:         user.Subscription,
		ReceiveNotifications: user.ReceiveNotifications,
	})
}

func (controller *AuthController) RegisterPushToken(c echo.Context) error {
	var req models.UserPushIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	if !models.ValidatePlatformRaw(req.Platform) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown platform"})
	}

	token := models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      models.ScanPlatform(req.Platform),
		Token:         req.Token,
		Active:        true,
	}
	if err := db.Create(&token).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save push token"})
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "ok"})
}

func (controller *AuthController) UpdateSettings(c echo.Context) error {
	var req models.UserSettingsIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	user.ReceiveNotifications = req.ReceiveNotifications
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update settings"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}
