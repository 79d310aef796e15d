package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paygate/internal/service"
)

type createTransactionReq struct {
	UserID          uint64  `json:"userId" binding:"required"`
	PaymentMethodID uint64  `json:"paymentMethodId" binding:"required"`
	Amount          string  `json:"amount" binding:"required"`
	Currency        string  `json:"currency"`
	Description     *string `json:"description"`
}

func createTransactionHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTransactionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		tx, err := svc.CreateTransaction(c, callerID(c), service.CreateTransactionInput{
			UserID:          req.UserID,
			PaymentMethodID: req.PaymentMethodID,
			Amount:          req.Amount,
			Currency:        req.Currency,
			Description:     req.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": tx})
	}
}

func listTransactionsHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := svc.ListTransactions(c, callerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txs})
	}
}

// getTransactionHandler resolves either the numeric id or, for non-numeric
// path values, the external reference token (TXN_...).
func getTransactionHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("id")
		var (
			tx  interface{}
			err error
		)
		if id, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
			tx, err = svc.GetTransaction(c, id)
		} else {
			tx, err = svc.GetTransactionByReference(c, raw)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": tx})
	}
}

type updateStatusReq struct {
	Status          string  `json:"status" binding:"required"`
	GatewayResponse *string `json:"gatewayResponse"`
}

func updateTransactionStatusHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid transaction id"})
			return
		}
		var req updateStatusReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		tx, err := svc.UpdateStatus(c, id, req.Status, req.GatewayResponse)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": tx})
	}
}

type processPaymentReq struct {
	APIKey        string  `json:"apiKey"`
	Amount        string  `json:"amount" binding:"required"`
	Currency      string  `json:"currency"`
	Description   *string `json:"description"`
	PaymentMethod string  `json:"paymentMethod"`
}

func processPaymentHandler(gw *service.GatewayService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req processPaymentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		res, err := gw.ProcessPayment(c, service.ProcessPaymentInput{
			APIKey:        req.APIKey,
			Amount:        req.Amount,
			Currency:      req.Currency,
			Description:   req.Description,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
