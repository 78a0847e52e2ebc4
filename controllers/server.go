package controllers

import (
	"net/http"
	"os"

	"closetapi/models"
	"closetapi/services"

	firebase "firebase.google.com/go/v4"
	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		// Optionally, you could return the error to give each route more control over the status code
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	db *gorm.DB,
	googleService services.GoogleServiceProvider,
	appleService services.AppleServiceProvider,
	awsService services.AWSServiceProvider,
	firebaseApp *firebase.App,
	asynqClient *asynq.Client,
	urlCache services.URLCacheServiceProvider,
	weather *services.WeatherResolver,
) *echo.Echo {

	e := echo.New()
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("season", models.ValidateSeason)
	v.RegisterValidation("mixstrategy", models.ValidateMixStrategy)
	v.RegisterValidation("existingpolicy", models.ValidateExistingPolicy)
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			c.Set("__weather", weather)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	authGroup := e.Group("auth")
	authController := AuthController{Google: googleService, Apple: appleService, FirebaseApp: firebaseApp}
	authController.AuthRoutes(authGroup)

	closetGroup := e.Group("/closet", echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))))
	closetGroup.Use(UserMiddleware)
	authController.ProfileRoutes(closetGroup)

	wardrobeController := WardrobeController{AWSService: awsService, URLCache: urlCache}
	wardrobeController.WardrobeRoutes(closetGroup)

	outfitsController := OutfitsController{URLCache: urlCache}
	outfitsController.OutfitRoutes(closetGroup)

	plannerController := PlannerController{}
	plannerController.PlannerRoutes(closetGroup)

	return e
}
