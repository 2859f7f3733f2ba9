package cmd

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function",
	Long:  "Serve the HTTP API behind API Gateway (HTTP API v2) and run the stale donation report on EventBridge schedules.",
	Run:   runLambda,
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(_ *cobra.Command, _ []string) {
	cfg, donationService, cleanup := mustCreateDonationService()
	defer cleanup()

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(authlibservice.NewInternalAuthService(authGRPCClient))
	e := setupHTTPServer(donationService, echoInternalAuthMiddleware.RequireInternalAccess(cfg.App.ServiceName))

	lambda.Start(newLambdaHandler(httpadapter.NewV2(e), donationService))
}

type apiGatewayProxy interface {
	ProxyWithContext(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)
}

// newLambdaHandler dispatches on the raw event shape: API Gateway requests
// go to the Echo app, scheduled EventBridge events produce the stale report.
func newLambdaHandler(adapter apiGatewayProxy, donationService *service.DonationService) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var apiEvent events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &apiEvent); err == nil && apiEvent.RequestContext.HTTP.Method != "" {
			return adapter.ProxyWithContext(ctx, apiEvent)
		}

		var ebEvent events.EventBridgeEvent
		if err := json.Unmarshal(raw, &ebEvent); err == nil && ebEvent.DetailType != "" {
			return handleScheduledReport(ctx, donationService, ebEvent)
		}

		logrus.WithField("bytes", len(raw)).Warn("Unrecognized lambda event")
		return map[string]string{"status": "ignored"}, nil
	}
}

func handleScheduledReport(ctx context.Context, donationService *service.DonationService, ebEvent events.EventBridgeEvent) (any, error) {
	logger := logrus.WithFields(logrus.Fields{
		"job":         "stale_report",
		"event_id":    ebEvent.ID,
		"detail_type": ebEvent.DetailType,
	})

	report, err := donationService.StalePendingReport(ctx)
	if err != nil {
		logger.WithError(err).Error("job_failed")
		return nil, err
	}

	logger.WithField("stale_count", len(report.Donations)).Info("job_completed")
	return mapper.StaleReportToResponse(report), nil
}
