package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/trainingplanner/internal/adaptive"
	"github.com/2beens/trainingplanner/internal/cache"
	"github.com/2beens/trainingplanner/internal/config"
	"github.com/2beens/trainingplanner/internal/db"
	"github.com/2beens/trainingplanner/internal/load"
	"github.com/2beens/trainingplanner/internal/macrocycle"
	"github.com/2beens/trainingplanner/internal/mcp"
	"github.com/2beens/trainingplanner/internal/middleware"
	"github.com/2beens/trainingplanner/internal/periodization"
	"github.com/2beens/trainingplanner/internal/progress"
	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/internal/temporal"
	"github.com/2beens/trainingplanner/pkg"
)

type macroPlanRepo interface {
	Save(ctx context.Context, plan *macrocycle.Plan) error
	List(ctx context.Context, athleteID string) ([]macrocycle.Plan, error)
	Delete(ctx context.Context, athleteID, planID string) error
}

type loadHistoryRepo interface {
	Push(ctx context.Context, athleteID string, rec load.WeeklyLoadRecord, limit int) error
	List(ctx context.Context, athleteID string) ([]load.WeeklyLoadRecord, error)
}

// domain holds the planning services shared by the HTTP routes and the MCP tools.
type domain struct {
	macroService *macrocycle.Service
	optimizer    *load.Optimizer
	tracker      *progress.Tracker
	controller   *adaptive.Controller
	analyzer     *temporal.Analyzer
}

func newDomain(
	store progress.Store,
	plans macroPlanRepo,
	history loadHistoryRepo,
	planCache cache.Cache,
	metricsManager *metrics.Manager,
) *domain {
	tracker := progress.NewTracker(store, metricsManager)
	return &domain{
		macroService: macrocycle.NewService(plans, macrocycle.NewPlanner(time.Now), planCache, metricsManager),
		optimizer:    load.NewOptimizer(history),
		tracker:      tracker,
		controller:   adaptive.NewController(tracker, metricsManager),
		analyzer:     temporal.NewAnalyzer(temporal.NewRegexClassifier()),
	}
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	sqliteDB    *sql.DB
	redisClient *redis.Client
	planCache   *cache.PlanCache
	rateLimiter middleware.RequestRateLimiter
	coachAuth   *middleware.CoachAuth

	domain *domain

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		coachAuth:   middleware.NewCoachAuth(cfg.CoachTokenHash),
	}

	var collectors []prometheus.Collector
	var store progress.Store
	var plans macroPlanRepo
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			Host:           cfg.PostgresHost,
			Port:           cfg.PostgresPort,
			Name:           cfg.PostgresDBName,
			User:           cfg.PostgresUser,
			Password:       params.PostgresPassword,
			MaxConns:       cfg.PostgresMaxConns,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if err := db.Migrate(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("migrate db: %w", err)
		}
		s.dbPool = dbPool
		store = progress.NewPgStore(dbPool)
		plans = macrocycle.NewPlanRepo(dbPool)
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	case config.StoreBackendSQLite:
		sqliteDB, err := progress.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite [%s]: %w", cfg.SQLitePath, err)
		}
		s.sqliteDB = sqliteDB
		store = progress.NewSQLiteStore(sqliteDB)
		plans = macrocycle.NewMemPlanRepo()
		log.Warnln("sqlite backend: macro plans are kept in memory only")
	case config.StoreBackendMemory:
		store = progress.NewMemStore()
		plans = macrocycle.NewMemPlanRepo()
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}

	s.promRegistry = metrics.SetupPrometheus(collectors...)
	s.metricsManager = metrics.NewManager("trainingplanner", "service", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	s.redisClient = redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	s.rateLimiter = redis_rate.NewLimiter(s.redisClient)

	var history loadHistoryRepo
	rdbStatus := s.redisClient.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis, load history kept in memory: %s", err)
		history = load.NewMemHistoryRepo()
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
		history = load.NewRedisHistoryRepo(s.redisClient)
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "training-planner", s.redisClient)
	if err != nil {
		return nil, err
	}
	s.otelShutdown = otelShutdown

	s.planCache, err = cache.NewPlanCache(time.Duration(cfg.ActivePlanCacheTTLSeconds) * time.Second)
	if err != nil {
		return nil, fmt.Errorf("new plan cache: %w", err)
	}

	s.domain = newDomain(store, plans, history, s.planCache, s.metricsManager)

	return s, nil
}

// MCPServer exposes the planning tools backed by the server's services.
func (s *Server) MCPServer() *sdkmcp.Server {
	return mcp.NewServer(mcp.NewHandler(mcp.Deps{
		Macro:    s.domain.macroService,
		Load:     s.domain.optimizer,
		Adapter:  s.domain.controller,
		Progress: s.domain.tracker,
		Analyzer: s.domain.analyzer,
		Metrics:  s.metricsManager,
	}))
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("planner-router"))

	periodizationHandler := periodization.NewHandler(s.metricsManager)
	r.HandleFunc("/periodization/plan", periodizationHandler.HandlePlan).Methods("POST", "OPTIONS").Name("mesocycle-plan")
	r.HandleFunc("/periodization/apply", periodizationHandler.HandleApply).Methods("POST", "OPTIONS").Name("apply-week")
	r.HandleFunc("/periodization/catalog/{goal}", periodizationHandler.HandleCatalog).Methods("GET", "OPTIONS").Name("phase-catalog")

	macroHandler := macrocycle.NewHandler(s.domain.macroService)
	r.HandleFunc("/macro/{athlete}/plans", macroHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-macro-plan")
	r.HandleFunc("/macro/{athlete}/plans", macroHandler.HandleList).Methods("GET", "OPTIONS").Name("list-macro-plans")
	r.HandleFunc("/macro/{athlete}/plans/active", macroHandler.HandleActive).Methods("GET", "OPTIONS").Name("active-macro-plan")
	r.HandleFunc("/macro/{athlete}/plans/active/current", macroHandler.HandleCurrentPhase).Methods("GET", "OPTIONS").Name("current-phase")
	r.HandleFunc("/macro/{athlete}/plans/{id}", macroHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-macro-plan")

	loadHandler := load.NewHandler(s.domain.optimizer)
	r.HandleFunc("/load/workout", loadHandler.HandleWorkoutLoad).Methods("POST", "OPTIONS").Name("workout-load")
	r.HandleFunc("/load/optimize", loadHandler.HandleOptimize).Methods("POST", "OPTIONS").Name("optimize-load")
	r.HandleFunc("/load/{athlete}/weeks", loadHandler.HandleRecordWeek).Methods("POST", "OPTIONS").Name("record-week")
	r.HandleFunc("/load/{athlete}/weeks", loadHandler.HandleHistory).Methods("GET", "OPTIONS").Name("load-history")
	r.HandleFunc("/load/{athlete}/acwr", loadHandler.HandleACWR).Methods("GET", "OPTIONS").Name("acwr")
	r.HandleFunc("/load/{athlete}/state", loadHandler.HandleState).Methods("GET", "OPTIONS").Name("load-state")
	r.HandleFunc("/load/{athlete}/suggest", loadHandler.HandleSuggest).Methods("GET", "OPTIONS").Name("suggest-load")

	adaptiveHandler := adaptive.NewHandler(s.domain.controller)
	r.HandleFunc("/adaptive/adapt", adaptiveHandler.HandleAdapt).Methods("POST", "OPTIONS").Name("adapt-week")
	r.HandleFunc("/adaptive/{athlete}/deload-check", adaptiveHandler.HandleDeloadCheck).Methods("POST", "OPTIONS").Name("deload-check-signals")

	progressHandler := progress.NewHandler(s.domain.tracker, s.domain.controller, s.domain.macroService)
	r.HandleFunc("/progress/{athlete}", progressHandler.HandleInitialize).Methods("POST", "OPTIONS").Name("init-progress")
	r.HandleFunc("/progress/{athlete}", progressHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-progress")
	r.HandleFunc("/progress/{athlete}/feedback", progressHandler.HandleFeedback).Methods("POST", "OPTIONS").Name("week-feedback")
	r.HandleFunc("/progress/{athlete}/workouts", progressHandler.HandleWorkout).Methods("POST", "OPTIONS").Name("record-workout")
	r.HandleFunc("/progress/{athlete}/advance", progressHandler.HandleAdvance).Methods("POST", "OPTIONS").Name("advance-week")
	r.HandleFunc("/progress/{athlete}/skip-to-deload", progressHandler.HandleSkipToDeload).Methods("POST", "OPTIONS").Name("skip-to-deload")
	r.HandleFunc("/progress/{athlete}/extend", progressHandler.HandleExtend).Methods("POST", "OPTIONS").Name("extend-phase")
	r.HandleFunc("/progress/{athlete}/trend", progressHandler.HandleTrend).Methods("GET", "OPTIONS").Name("progress-trend")
	r.HandleFunc("/progress/{athlete}/summary", progressHandler.HandleSummary).Methods("GET", "OPTIONS").Name("progress-summary")
	r.HandleFunc("/progress/{athlete}/deload-check", progressHandler.HandleDeloadCheck).Methods("GET", "OPTIONS").Name("deload-check")

	temporalHandler := temporal.NewHandler(s.domain.analyzer)
	r.HandleFunc("/temporal/analyze", temporalHandler.HandleAnalyze).Methods("POST", "OPTIONS").Name("analyze-program")

	mcpServer := s.MCPServer()
	mcpHandler := otelhttp.NewHandler(
		sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
			return mcpServer
		}, nil),
		"mcp",
	)
	r.PathPrefix("/mcp").Handler(mcpHandler).Name("mcp")

	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins...))
	r.Use(s.coachAuth.Check())
	r.Use(middleware.RateLimit(s.rateLimiter, "planner", s.config.WriteRateLimitAllowedPerMin, s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.planCache != nil {
		s.planCache.Close()
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if s.sqliteDB != nil {
		if err := s.sqliteDB.Close(); err != nil {
			log.Errorf("failed to close sqlite db: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
