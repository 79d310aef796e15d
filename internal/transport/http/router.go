package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paygate/internal/auth"
	"paygate/internal/config"
	"paygate/internal/service"
	"paygate/internal/store"
)

func NewRouter(svc *service.PaymentService, gw *service.GatewayService, tokens *auth.JWT, rl config.RateLimitConfig, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(LoggingMiddleware(log))
	r.Use(RateLimitMiddleware(rl.RPS, rl.Burst))
	RegisterHandlers(r, svc, gw, tokens)
	return r
}

func RegisterHandlers(r *gin.Engine, svc *service.PaymentService, gw *service.GatewayService, tokens *auth.JWT) {
	api := r.Group("/api")
	{
		api.POST("/users", registerHandler(svc))
		api.POST("/login", loginHandler(svc, tokens))
		api.POST("/gateway/process-payment", processPaymentHandler(gw))

		authed := api.Group("", AuthMiddleware(tokens))
		{
			authed.GET("/users/:id", getUserHandler(svc))
			authed.GET("/users/:id/payment-methods", listPaymentMethodsHandler(svc))
			authed.POST("/payment-methods", createPaymentMethodHandler(svc))
			authed.DELETE("/payment-methods/:id", deletePaymentMethodHandler(svc))

			authed.GET("/transactions", listTransactionsHandler(svc))
			authed.GET("/transactions/:id", getTransactionHandler(svc))
			authed.POST("/transactions", createTransactionHandler(svc))
			authed.PATCH("/transactions/:id/status", updateTransactionStatusHandler(svc))

			authed.GET("/merchants", listMerchantsHandler(svc))
			authed.POST("/merchants", createMerchantHandler(svc))
		}
	}
}

// respondError maps the service/store error taxonomy onto HTTP statuses with
// the uniform {"message": ...} body.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrAPIKeyRequired):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
