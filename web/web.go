// Package web provides the console's web server: routing, templates, the
// session stack and the background jobs.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/procodebh/crm-console/config"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/common"
	"github.com/procodebh/crm-console/util/random"
	"github.com/procodebh/crm-console/web/cache"
	"github.com/procodebh/crm-console/web/controller"
	"github.com/procodebh/crm-console/web/gateway"
	"github.com/procodebh/crm-console/web/job"
	"github.com/procodebh/crm-console/web/locale"
	"github.com/procodebh/crm-console/web/middleware"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
	"github.com/procodebh/crm-console/web/websocket"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// TranslationFS returns the embedded translation files.
func TranslationFS() fs.FS { return i18nFS }

// Options overrides parts of the server's environment, mainly for tests.
type Options struct {
	// Backend replaces the client built from config.GetAPIBase.
	Backend *gateway.Client
	// Provider replaces the session provider chosen by config.
	Provider session.Provider
	// CookieSecret replaces config.GetSessionSecret.
	CookieSecret string
}

// Server is the console web server with its controllers, hub and jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	opts     Options
	backend  *service.Backend
	provider session.Provider
	hub      *websocket.Hub
	health   *job.CheckBackendJob

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer(opts ...Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{ctx: ctx, cancel: cancel}
	if len(opts) > 0 {
		s.opts = opts[0]
	}
	return s
}

// getHtmlFiles walks the local `web/html` directory and returns a list of
// template file paths. Used only in debug/development mode.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses embedded HTML templates from the bundled `htmlFS`.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"lakh": func(amount float64) string {
			return common.FormatLakh(int64(amount))
		},
		"thousands": func(amount float64) string {
			return common.FormatThousands(int64(amount))
		},
		"lower": strings.ToLower,
	}
}

// sessionStore builds the signed and encrypted cookie store holding the
// session id.
func (s *Server) sessionStore() (sessions.Store, error) {
	secret := s.opts.CookieSecret
	if secret == "" {
		secret = config.GetSessionSecret()
	}
	if secret == "" {
		logger.Warning("CONSOLE_SESSION_SECRET is not set, sessions will not survive a restart")
		generated, err := random.Secret(64)
		if err != nil {
			return nil, err
		}
		secret = generated
	}
	hashKey, blockKey, err := config.CookieKeys(secret)
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(hashKey, blockKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   config.GetSessionMaxAge() * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// sessionProvider picks where session records live.
func (s *Server) sessionProvider() session.Provider {
	if s.opts.Provider != nil {
		return s.opts.Provider
	}
	ttl := time.Duration(config.GetSessionMaxAge()) * time.Minute
	if config.GetSessionBackend() == config.SessionBackendMemory {
		return session.NewExpiringMemoryProvider(ttl)
	}
	return session.NewRedisProvider(cache.GetClient(), ttl)
}

// initRouter initializes Gin, registers middleware, templates, static assets,
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := session.ValidateNavigation(session.NavTabItems, session.RouteTable); err != nil {
		return nil, err
	}
	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	engine := gin.Default()

	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/ws", "/metrics"}),
	))
	engine.Use(middleware.Metrics())

	store, err := s.sessionStore()
	if err != nil {
		return nil, err
	}
	engine.Use(sessions.Sessions(session.CookieName, store))
	engine.Use(session.Middleware(s.provider))
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(func(c *gin.Context) {
		c.Set(controller.BackendUpKey, s.health.Up())
		c.Next()
	})
	engine.Use(middleware.AuditMiddleware())

	funcMap := templateFuncs()
	engine.SetFuncMap(funcMap)

	// Static files & templates
	if config.IsDebug() {
		files, err := s.getHtmlFiles()
		if err != nil {
			return nil, err
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS("/assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS("/assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := engine.Group("/")
	controller.NewIndexController(g, s.backend)
	controller.NewDashboardController(g, s.backend)
	controller.NewStudentController(g, s.backend)
	controller.NewCourseController(g, s.backend)
	controller.NewRecordsController(g, s.backend)
	controller.NewAccountController(g, s.backend)
	controller.NewWebSocketController(g, s.hub)

	// Unknown pages land on the dashboard, which the guard protects.
	engine.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/assets/") {
			c.Redirect(http.StatusTemporaryRedirect, session.DashboardPath)
			return
		}
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// init prepares everything the router needs without listening.
func (s *Server) init() (*gin.Engine, error) {
	if s.opts.Provider == nil && config.GetSessionBackend() == config.SessionBackendRedis {
		if err := cache.InitRedis(s.ctx, config.GetRedisAddr()); err != nil {
			return nil, err
		}
	}

	client := s.opts.Backend
	if client == nil {
		client = gateway.NewClient(gateway.Options{
			BaseURL: config.GetAPIBase(),
			Timeout: config.GetAPITimeout(),
		})
	}
	s.backend = service.NewBackend(client)
	s.provider = s.sessionProvider()

	s.hub = websocket.NewHub()
	go s.hub.Run()
	s.health = job.NewCheckBackendJob(s.backend, s.hub, config.GetAPITimeout())

	return s.initRouter()
}

// Handler builds the router without starting the listener or the jobs.
func (s *Server) Handler() (http.Handler, error) {
	return s.init()
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	go s.health.Run()
	if _, err := s.cron.AddJob(config.GetHealthCron(), s.health); err != nil {
		logger.Warning("Add backend health job error:", err)
	}
	if _, err := s.cron.AddJob("@daily", job.NewAuditCleanupJob()); err != nil {
		logger.Warning("Add audit cleanup job error:", err)
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithLocation(time.Local))
	s.cron.Start()

	engine, err := s.init()
	if err != nil {
		return err
	}

	port, err := config.GetPort()
	if err != nil {
		return err
	}
	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())
	logger.Info("Backend API at", config.GetAPIBase())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()
	return nil
}

// Stop gracefully shuts down the web server, the hub and the cron jobs.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.hub.Stop()
	var err1, err2, err3 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		if err2 = s.listener.Close(); errors.Is(err2, net.ErrClosed) {
			err2 = nil
		}
	}
	err3 = cache.Close()
	return common.Combine(err1, err2, err3)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }
