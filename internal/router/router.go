package router

import (
	"time"

	"entrepeques/internal/config"
	"entrepeques/internal/handler"
	"entrepeques/internal/infra"
	"entrepeques/internal/middleware"
	"entrepeques/internal/repository"
	"entrepeques/internal/service"
	"entrepeques/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, pasarelaCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	pasarela := infra.NewPasarelaClient(cfg.PasarelaURL)

	// ── Repositories ─────────────────────────────────────────────────────────
	clienteRepo := repository.NewClienteRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	valuacionRepo := repository.NewValuacionRepository(db)
	consignacionRepo := repository.NewConsignacionRepository(db)
	inventarioRepo := repository.NewInventarioRepository(db)
	ventaRepo := repository.NewVentaRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	clienteSvc := service.NewClienteService(clienteRepo)
	pricingSvc := service.NewPricingService(pricingRepo, rdb)
	ropaSvc := service.NewRopaService(pricingRepo)
	consignacionSvc := service.NewConsignacionService(consignacionRepo, inventarioRepo)
	valuacionSvc := service.NewValuacionService(valuacionRepo, clienteRepo, inventarioRepo, consignacionRepo, pricingSvc, dispatcher)
	ventaSvc := service.NewVentaService(ventaRepo, inventarioRepo, clienteRepo, consignacionRepo, consignacionSvc, pasarela, pasarelaCB, cfg.StoreName)

	// ── Handlers ─────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(db, rdb, pasarelaCB)
	clientesH := handler.NewClientesHandler(clienteSvc)
	valuacionesH := handler.NewValuacionesHandler(valuacionSvc, pricingSvc)
	ropaH := handler.NewRopaHandler(ropaSvc)
	consignacionesH := handler.NewConsignacionesHandler(consignacionSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	webhooksH := handler.NewWebhooksHandler(ventaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", healthH.Health)

	// Gateway webhook — authenticated by the gateway's own signature scheme at
	// the edge proxy, not by user JWTs.
	r.POST("/v1/webhooks/pagos", webhooksH.PagoWebhook)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: valuador, gerente, admin — declared per-endpoint
		staff := middleware.RequireRole("valuador", "gerente", "admin")
		gerencia := middleware.RequireRole("gerente", "admin")

		clientes := v1.Group("/clientes")
		{
			clientes.POST("", staff, clientesH.Crear)
			clientes.GET("", staff, clientesH.Listar)
			clientes.GET("/:id", staff, clientesH.Obtener)
			clientes.PUT("/:id", staff, clientesH.Actualizar)
			clientes.DELETE("/:id", gerencia, clientesH.Desactivar)
		}

		valuaciones := v1.Group("/valuaciones")
		{
			valuaciones.POST("", staff, valuacionesH.Crear)
			valuaciones.GET("", staff, valuacionesH.Listar)
			valuaciones.POST("/calcular", staff, valuacionesH.CalcularItem)
			valuaciones.POST("/calcular-lote", staff, valuacionesH.CalcularLote)
			valuaciones.POST("/finalizar", staff, valuacionesH.FinalizarCompleta)
			valuaciones.GET("/:id", staff, valuacionesH.Obtener)
			valuaciones.DELETE("/:id", gerencia, valuacionesH.Cancelar)
		}

		ropa := v1.Group("/ropa")
		{
			ropa.POST("/precio", staff, ropaH.PrecioPrenda)
			ropa.POST("/lote", staff, ropaH.DistribuirLote)
			ropa.GET("/tallas", staff, ropaH.Tallas)
			ropa.GET("/precios", staff, ropaH.Precios)
		}

		consignaciones := v1.Group("/consignaciones")
		{
			consignaciones.GET("", staff, consignacionesH.Listar)
			consignaciones.GET("/descuentos", staff, consignacionesH.TablaDescuentos)
			consignaciones.GET("/estadisticas", gerencia, consignacionesH.Estadisticas)
			consignaciones.GET("/:id", staff, consignacionesH.Obtener)
			consignaciones.POST("/:id/pagar", gerencia, consignacionesH.MarcarPagado)
			consignaciones.POST("/:id/devolver", gerencia, consignacionesH.MarcarDevuelto)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", staff, ventasH.RegistrarVenta)
			ventas.GET("", staff, ventasH.Listar)
			ventas.GET("/:id", staff, ventasH.Obtener)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
