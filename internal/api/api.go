package api

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/elastic-io/bucketzip/internal/config"
	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/elastic-io/bucketzip/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// HeaderRequestID 每个请求的关联 ID
const HeaderRequestID = "X-Request-Id"

type API interface {
	Init(*config.Config) error
	RegisterRoutes(fiber.Router)
}

var apis = map[string]API{}

func APIRegister(name string, api API) {
	if _, ok := apis[name]; ok {
		panic(fmt.Errorf("API %s already registered", name))
	}
	apis[name] = api
}

// Registered 已注册的模块名
func Registered() []string {
	names := make([]string, 0, len(apis))
	for name := range apis {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Server struct {
	config *config.Config
	router *fiber.App
	apis   []API
}

func New(c *config.Config) *Server {
	s := &Server{
		config: c,
		router: fiber.New(fiber.Config{
			BodyLimit:             c.BodyLimit,
			DisableStartupMessage: true,
			StrictRouting:         true,
			CaseSensitive:         true,
			ReadTimeout:           time.Duration(c.ReadTimeout) * time.Second,
			WriteTimeout:          time.Duration(c.WriteTimeout) * time.Second,
			IdleTimeout:           time.Duration(c.IdleTimeout) * time.Second,
			ReduceMemoryUsage:     true,
			ReadBufferSize:        16 * types.KB,
			WriteBufferSize:       32 * types.KB,
			ErrorHandler:          errorHandler,
		}),
	}

	s.router.Use(loggingMiddleware())

	s.router.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Logger.Errorw("Recovered from panic", "panic", e, "stack", string(debug.Stack()))
		},
	}))

	// 健康检查不需要认证
	s.router.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if c.EnableAuth {
		s.router.Use(BasicAuthMiddleware(c.Username, c.Password))
	}
	return s
}

func (s *Server) Init() error {
	if len(apis) == 0 {
		return fmt.Errorf("no APIs registered")
	}

	for _, mod := range s.config.Modules {
		api, ok := apis[mod]
		if !ok {
			return errdefs.Configuration("unknown API module %q, expected one of %v", mod, Registered())
		}
		s.apis = append(s.apis, api)
	}

	for _, api := range s.apis {
		if err := api.Init(s.config); err != nil {
			return err
		}
		api.RegisterRoutes(s.router)
	}
	return nil
}

// App 暴露底层 fiber 应用，测试中用 app.Test 发请求
func (s *Server) App() *fiber.App {
	return s.router
}

func (s *Server) Serve() error {
	log.Logger.Infow("Starting server", "endpoint", s.config.Endpoint, "modules", s.config.Modules)

	if s.config.CertFile != "" && s.config.KeyFile != "" {
		log.Logger.Infow("Using HTTPS", "cert", s.config.CertFile, "key", s.config.KeyFile)
		return s.router.ListenTLS(s.config.Endpoint, s.config.CertFile, s.config.KeyFile)
	}

	log.Logger.Warn("WARNING: Using insecure HTTP mode")
	return s.router.Listen(s.config.Endpoint)
}

func (s *Server) Done() error {
	if s.router != nil {
		return s.router.Shutdown()
	}
	return nil
}

// StatusOf 把核心错误映射为 HTTP 状态码
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errdefs.IsConfiguration(err):
		return fiber.StatusBadRequest
	case errdefs.IsNoSuchBucket(err):
		return fiber.StatusNotFound
	case errdefs.IsListing(err), errdefs.IsFetch(err):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := StatusOf(err)
	log.Logger.Errorw("HTTP error", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func BasicAuthMiddleware(username, password string) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Users: map[string]string{
			username: password,
		},
		Realm: "bucketzip",
		Unauthorized: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		},
	})
}

func loggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = utils.UID(utils.HEX, 16)
		}
		c.Locals("request_id", id)
		c.Set(HeaderRequestID, id)

		err := c.Next()

		// 流式响应在 handler 返回后才写出 body，这里只记录到开始传输为止
		log.Logger.Infow("Request handled",
			"request_id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed", time.Since(start))
		return err
	}
}
