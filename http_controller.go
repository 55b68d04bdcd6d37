package auth

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-portal-auth/middleware/jwtware"
	"github.com/goliatone/go-portal-auth/resume"
)

// ClaimsContextKey is where the jwt middleware stores the verified ClaimSet
const ClaimsContextKey = "user"

type PortalControllerRoutes struct {
	UserRegister  string
	UserLogin     string
	UserMe        string
	AdminRegister string
	AdminLogin    string
	AdminMe       string
	Metrics       string
}

type PortalController struct {
	Debug         bool
	Logger        Logger
	Routes        *PortalControllerRoutes
	Users         *Registrar
	UserAuth      *Authenticator
	Admins        *Registrar
	AdminAuth     *Authenticator
	Tokens        TokenValidator
	Commands      *RegisterAccountHandler
	Resumes       resume.Storage
	MaxResumeSize int64
	Metrics       *MetricsSink
	LoginLimiter  *LoginLimiter
	ErrorHandler  fiber.ErrorHandler
}

type PortalControllerOption func(*PortalController) *PortalController

// WithDebug dumps request payloads, passwords redacted
func WithDebug(debug bool) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Debug = debug
		return pc
	}
}

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Logger = normalizeLogger(logger)
		return pc
	}
}

// WithUserServices mounts the job seeker routes
func WithUserServices(registrar *Registrar, authenticator *Authenticator) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Users = registrar
		pc.UserAuth = authenticator
		return pc
	}
}

// WithAdminServices mounts the admin routes
func WithAdminServices(registrar *Registrar, authenticator *Authenticator) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Admins = registrar
		pc.AdminAuth = authenticator
		return pc
	}
}

// WithTokenValidator sets the validator guarding the profile routes
func WithTokenValidator(validator TokenValidator) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Tokens = validator
		return pc
	}
}

// WithResumeStorage enables resume uploads on user registration
func WithResumeStorage(storage resume.Storage, maxSize int64) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Resumes = storage
		pc.MaxResumeSize = maxSize
		return pc
	}
}

// WithMetrics exposes the metrics sink on the metrics route
func WithMetrics(metrics *MetricsSink) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.Metrics = metrics
		return pc
	}
}

// WithLoginLimiter throttles the login routes
func WithLoginLimiter(limiter *LoginLimiter) PortalControllerOption {
	return func(pc *PortalController) *PortalController {
		pc.LoginLimiter = limiter
		return pc
	}
}

func NewPortalController(opts ...PortalControllerOption) *PortalController {
	pc := &PortalController{
		Logger:       defLogger{},
		ErrorHandler: ErrorResponse,
		Routes: &PortalControllerRoutes{
			UserRegister:  "/api/user/register",
			UserLogin:     "/api/user/login",
			UserMe:        "/api/user/me",
			AdminRegister: "/api/admin/admin-register",
			AdminLogin:    "/api/admin/admin-login",
			AdminMe:       "/api/admin/me",
			Metrics:       "/metrics",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			pc = opt(pc)
		}
	}

	if pc.Users == nil && pc.Admins == nil {
		panic("Missing registrars in portal controller...")
	}

	if pc.Tokens == nil {
		panic("Missing TokenValidator in portal controller...")
	}

	if pc.Commands == nil {
		pc.Commands = NewRegisterAccountHandler(pc.Users, pc.Admins)
	}

	return pc
}

// RegisterPortalRoutes mounts every configured route on app
func RegisterPortalRoutes(app fiber.Router, opts ...PortalControllerOption) *PortalController {
	controller := NewPortalController(opts...)

	if controller.Users != nil {
		app.Post(controller.Routes.UserRegister, controller.UserRegisterPost).Name("user.register")
		app.Post(controller.Routes.UserLogin, controller.UserLoginPost).Name("user.login")
		app.Get(controller.Routes.UserMe, controller.protect(false), controller.UserMeGet).Name("user.me")
	}

	if controller.Admins != nil {
		app.Post(controller.Routes.AdminRegister, controller.AdminRegisterPost).Name("admin.register")
		app.Post(controller.Routes.AdminLogin, controller.AdminLoginPost).Name("admin.login")
		app.Get(controller.Routes.AdminMe, controller.protect(true), controller.AdminMeGet).Name("admin.me")
	}

	if controller.Metrics != nil {
		app.Get(controller.Routes.Metrics, adaptor.HTTPHandler(controller.Metrics.Handler())).Name("metrics")
	}

	return controller
}

func (pc *PortalController) protect(admin bool) fiber.Handler {
	return jwtware.New(jwtware.Config[*ClaimSet]{
		ContextKey:     ClaimsContextKey,
		TokenValidator: pc.Tokens,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if err == jwtware.ErrJWTMissingOrMalformed {
				err = ErrMissingCredentials
			}
			return pc.ErrorHandler(c, err)
		},
		ValidationListeners: []jwtware.ValidationListener[*ClaimSet]{ContextEnricher},
		Authorize: func(claims *ClaimSet) error {
			if claims.IsAdmin() != admin {
				return ErrForbidden
			}
			return nil
		},
	})
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	if err := validation.Validate(strings.TrimSpace(r.Email), validation.Required.Error("Email is required.")); err != nil {
		return NewValidationError("email", err.Error())
	}
	if err := validation.Validate(r.Password, validation.Required.Error("Password is required.")); err != nil {
		return NewValidationError("password", err.Error())
	}
	return nil
}

func (pc *PortalController) UserRegisterPost(c *fiber.Ctx) error {
	return pc.register(c, pc.Users, true)
}

func (pc *PortalController) AdminRegisterPost(c *fiber.Ctx) error {
	return pc.register(c, pc.Admins, false)
}

func (pc *PortalController) UserLoginPost(c *fiber.Ctx) error {
	return pc.login(c, pc.UserAuth)
}

func (pc *PortalController) AdminLoginPost(c *fiber.Ctx) error {
	return pc.login(c, pc.AdminAuth)
}

func (pc *PortalController) UserMeGet(c *fiber.Ctx) error {
	return pc.me(c, pc.UserAuth)
}

func (pc *PortalController) AdminMeGet(c *fiber.Ctx) error {
	return pc.me(c, pc.AdminAuth)
}

func (pc *PortalController) register(c *fiber.Ctx, registrar *Registrar, acceptResume bool) error {
	payload := new(RegistrationRequest)

	if err := c.BodyParser(payload); err != nil {
		pc.Logger.Error("register parse payload: %v", err)
		return pc.ErrorHandler(c, ErrUnableToParseData)
	}

	if pc.Debug {
		redacted := *payload
		redacted.Password = "********"
		pc.Logger.Debug("======= %s REGISTER ======\n%s", strings.ToUpper(string(registrar.Policy().Kind)), print.MaybePrettyJSON(redacted))
	}

	if acceptResume {
		// validate before uploading so rejected requests leave no object behind
		if err := Validate(registrar.Policy(), *payload); err != nil {
			return pc.ErrorHandler(c, err)
		}
		ref, err := pc.storeResume(c)
		if err != nil {
			return pc.ErrorHandler(c, err)
		}
		payload.ResumeRef = ref
	}

	var confirmation *Confirmation
	err := pc.Commands.Execute(c.UserContext(), RegisterAccountMessage{
		Kind:    registrar.Policy().Kind,
		Request: *payload,
		OnResponse: func(cf *Confirmation) {
			confirmation = cf
		},
	})
	if err != nil {
		pc.discardResume(c.UserContext(), payload.ResumeRef)
		return pc.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(confirmation)
}

// discardResume removes an upload whose registration did not complete
func (pc *PortalController) discardResume(ctx context.Context, key string) {
	if key == "" || pc.Resumes == nil {
		return
	}
	if err := pc.Resumes.Delete(context.WithoutCancel(ctx), key); err != nil {
		pc.Logger.Error("register failed to discard resume %s: %v", key, err)
	}
}

func (pc *PortalController) storeResume(c *fiber.Ctx) (string, error) {
	if pc.Resumes == nil || !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return "", nil
	}

	fh, err := c.FormFile("resume")
	if err != nil || fh == nil {
		return "", nil
	}

	if pc.MaxResumeSize > 0 && fh.Size > pc.MaxResumeSize {
		return "", resume.ErrTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to open resume")
	}
	defer file.Close()

	key, err := pc.Resumes.Put(c.UserContext(), fh.Filename, fh.Header.Get(fiber.HeaderContentType), file, fh.Size)
	if err != nil {
		pc.Logger.Error("register failed to store resume: %v", err)
		return "", err
	}

	return key, nil
}

func (pc *PortalController) login(c *fiber.Ctx, authenticator *Authenticator) error {
	if !pc.LoginLimiter.Allow(c.IP()) {
		return pc.ErrorHandler(c, ErrTooManyRequests)
	}

	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		pc.Logger.Error("login parse payload: %v", err)
		return pc.ErrorHandler(c, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return pc.ErrorHandler(c, err)
	}

	if pc.Debug {
		pc.Logger.Debug("======= LOGIN ======\n%s", print.MaybePrettyJSON(map[string]any{
			"email": payload.Email,
			"kind":  authenticator.Policy().Kind,
		}))
	}

	result, err := authenticator.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return pc.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": result.Message,
		"token":   result.Token.Value,
		"expires": result.Token.ExpiresAt,
		"profile": result.Profile,
	})
}

func (pc *PortalController) me(c *fiber.Ctx, authenticator *Authenticator) error {
	claims, ok := GetClaims(c.UserContext())
	if !ok {
		claims, ok = jwtware.ClaimsFromLocals[*ClaimSet](c, ClaimsContextKey)
	}
	if !ok || claims == nil {
		return pc.ErrorHandler(c, ErrMissingCredentials)
	}

	profile, err := authenticator.Profile(c.UserContext(), claims.Subject)
	if err != nil {
		return pc.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

// ErrorResponse writes err as JSON using the status carried by rich errors
func ErrorResponse(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	body := fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
		"category":  fmt.Sprint(richErr.Category),
	}
	if field, ok := ValidationField(err); ok {
		body["field"] = field
	}

	return c.Status(status).JSON(body)
}
