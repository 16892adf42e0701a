package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/internal/api/handlers"
	"github.com/maheshrc27/crosspost-api/internal/api/middleware"
	"github.com/maheshrc27/crosspost-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// Deps aggregates the services the HTTP layer is built from.
type Deps struct {
	Cfg         config.Config
	Cache       *redis.Client
	Auth        service.AuthService
	Users       service.UserService
	Credentials service.CredentialsService
	Posts       service.PostService
	// AccessLog disables the request logger when false.
	AccessLog bool
}

// NewApp builds the Fiber app with middleware and all routes.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      d.Cfg.AppName,
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:X-Request-ID} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	origins := allowedOrigins(d.Cfg.FrontendURL)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: origins != "*",
		MaxAge:           3600,
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "Health_check"})
	})

	authMiddleware := middleware.NewAuthMiddleware(d.Cfg).AuthMiddleware()

	api := app.Group("/api")

	auth := handlers.NewAuthHandler(d.Auth)
	api.Post("/signup", auth.Signup)
	api.Post("/signin", middleware.RateLimit(d.Cache, "signin", d.Cfg.LoginRateLimit), auth.Signin)
	api.Post("/sendVerification", middleware.RateLimit(d.Cache, "mail", d.Cfg.LoginRateLimit), auth.SendVerification)
	api.Post("/verify", middleware.RateLimit(d.Cache, "verify", d.Cfg.LoginRateLimit), auth.Verify)
	api.Post("/forgotPass", middleware.RateLimit(d.Cache, "mail", d.Cfg.LoginRateLimit), auth.ForgotPassword)
	api.Post("/resetPass", auth.ResetPassword)
	api.Post("/updatePass", auth.UpdatePassword)
	api.Post("/refresh", auth.Refresh)

	user := handlers.NewUserHandler(d.Users)
	api.Get("/user/info", authMiddleware, user.GetUserInfo)

	creds := handlers.NewCredentialsHandler(d.Credentials)
	api.Post("/save-instagram-credentials", authMiddleware, creds.SaveInstagram)
	api.Get("/get-instagram-credentials/:user_id", authMiddleware, creds.GetInstagram)
	api.Post("/save-facebook-credentials", authMiddleware, creds.SaveFacebook)
	api.Get("/get-facebook-credentials/:user_id", authMiddleware, creds.GetFacebook)
	api.Put("/edit-instagram-credentials", authMiddleware, creds.EditInstagram)
	api.Put("/edit-facebook-credentials", authMiddleware, creds.EditFacebook)
	api.Post("/save-credentials", authMiddleware, creds.SaveAll)
	api.Get("/get-credentials/:user_id", authMiddleware, creds.GetAll)
	api.Put("/update-credentials", authMiddleware, creds.Update)
	api.Get("/check-token-expiry/:user_id", authMiddleware, creds.CheckTokenExpiry)

	social := handlers.NewSocialHandler(d.Posts)
	api.Post("/upload-socialmedia", authMiddleware, social.UploadImage)
	api.Post("/upload-video-socialmedia", authMiddleware, social.UploadVideo)
	api.Get("/social-posts/:user_id", authMiddleware, social.ListPosts)

	return app
}

func allowedOrigins(frontendURL string) string {
	origins := []string{}
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}
