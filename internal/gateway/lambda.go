package gateway

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// LambdaHandler adapts the gateway to an API Gateway proxy integration.
// Pass it to lambda.Start.
func (g *Gateway) LambdaHandler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	L_info("gateway: lambda invoked", "requestID", req.RequestContext.RequestID, "method", req.HTTPMethod)

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return toProxyResponse(Error(fmt.Errorf("failed to decode body: %w", err))), nil
		}
		body = decoded
	}
	return toProxyResponse(g.HandleWebhook(ctx, body)), nil
}

func toProxyResponse(env Envelope) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: env.StatusCode,
		Headers:    env.Headers,
		Body:       env.Body,
	}
}
