package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-donations/app/controller"
	donationgrpc "github.com/vibast-solutions/ms-go-donations/app/grpc"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
	"github.com/vibast-solutions/ms-go-donations/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers for the donations service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, donationService, cleanup := mustCreateDonationService()
	defer cleanup()

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
	grpcInternalAuthMiddleware := authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(donationService, echoInternalAuthMiddleware.RequireInternalAccess(cfg.App.ServiceName))
	grpcSrv, lis := setupGRPCServer(cfg, donationgrpc.NewServer(donationService), grpcInternalAuthMiddleware.UnaryRequireInternalAccess(cfg.App.ServiceName))

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

// setupHTTPServer builds the public donation API. adminAuth guards the
// /admin routes only; the checkout endpoints are called from the browser.
func setupHTTPServer(donationService *service.DonationService, adminAuth echo.MiddlewareFunc) *echo.Echo {
	donationController := controller.NewDonationController(donationService)
	providerController := controller.NewProviderController(donationService)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler

	e.Pre(corsPreflight())
	e.Use(ensureRequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))

	e.GET("/health", donationController.Health)

	donations := e.Group("/donations")
	donations.POST("", donationController.CreateDonation)
	donations.GET("/:id", donationController.GetDonation)
	donations.POST("/:id/confirm", donationController.ConfirmDonation)
	donations.POST("/:id/return", donationController.ReturnDonation)

	admin := e.Group("/admin", adminAuth)
	admin.GET("/donations", donationController.ListDonations)
	admin.GET("/donations/stale", donationController.StaleReport)
	admin.GET("/donations/:id", donationController.GetDonationDetail)
	admin.POST("/donations/:id/approve", donationController.ApproveDonation)
	admin.POST("/donations/:id/reject", donationController.RejectDonation)

	e.POST("/create-stripe-checkout", providerController.CreateStripeCheckout)
	e.GET("/verify-stripe-session/:id", providerController.VerifyStripeSession)
	e.POST("/create-paypal-order", providerController.CreatePayPalOrder)
	e.POST("/capture-paypal-order", providerController.CapturePayPalOrder)
	e.POST("/create-mercadopago-checkout", providerController.CreateMercadoPagoCheckout)
	e.GET("/create-pagarme-checkout", providerController.CreatePagarmeCheckout)
	e.POST("/create-pagarme-checkout", providerController.CreatePagarmeCheckout)
	e.POST("/process-pagarme-payment", providerController.ProcessPagarmePayment)
	e.POST("/process-cielo-payment", providerController.ProcessCieloPayment)

	return e
}

// corsPreflight answers every OPTIONS request with 200 and an empty body,
// before routing, so preflights work for any path.
func corsPreflight() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if ctx.Request().Method != http.MethodOptions {
				return next(ctx)
			}
			h := ctx.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
			h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization, X-Request-ID")
			return ctx.NoContent(http.StatusOK)
		}
	}
}

// ensureRequestID propagates the caller's X-Request-ID, or assigns one, on
// the response so handlers and the access log can correlate entries.
func ensureRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
				ctx.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func httpErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	statusCode := http.StatusInternalServerError
	message := "internal server error"
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		statusCode = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(statusCode)
		}
	}

	if statusCode >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("uri", ctx.Request().RequestURI).Error("Unhandled HTTP error")
	}

	if ctx.Request().Method == http.MethodHead {
		_ = ctx.NoContent(statusCode)
		return
	}
	_ = ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}

func setupGRPCServer(
	cfg *config.Config,
	donationServer *donationgrpc.Server,
	internalAuth grpc.UnaryServerInterceptor,
) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			donationgrpc.RecoveryInterceptor(),
			donationgrpc.RequestIDInterceptor(),
			donationgrpc.LoggingInterceptor(),
			internalAuth,
		),
	)
	donationgrpc.RegisterDonationsServer(grpcSrv, donationServer)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(donationgrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	return grpcSrv, lis
}
