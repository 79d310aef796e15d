package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paygate/internal/auth"
	"paygate/internal/service"
)

type registerReq struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	Email    string  `json:"email" binding:"required,email"`
	FullName *string `json:"fullName"`
}

func registerHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		u, err := svc.Register(c, service.RegisterInput{
			Username: req.Username,
			Password: req.Password,
			Email:    req.Email,
			FullName: req.FullName,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(svc *service.PaymentService, tokens *auth.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		u, err := svc.Login(c, req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		token, err := tokens.Generate(u.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
	}
}

func getUserHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
			return
		}
		u, err := svc.GetUser(c, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

type createPaymentMethodReq struct {
	UserID         uint64  `json:"userId" binding:"required"`
	Type           string  `json:"type" binding:"required"`
	CardNumber     string  `json:"cardNumber" binding:"required,min=13,max=19"`
	CardHolderName *string `json:"cardHolderName"`
	ExpiryMonth    *int    `json:"expiryMonth"`
	ExpiryYear     *int    `json:"expiryYear"`
}

func createPaymentMethodHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPaymentMethodReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		pm, err := svc.CreatePaymentMethod(c, callerID(c), service.CreatePaymentMethodInput{
			UserID:         req.UserID,
			Type:           req.Type,
			CardNumber:     req.CardNumber,
			CardHolderName: req.CardHolderName,
			ExpiryMonth:    req.ExpiryMonth,
			ExpiryYear:     req.ExpiryYear,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"paymentMethod": pm})
	}
}

func listPaymentMethodsHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
			return
		}
		pms, err := svc.ListPaymentMethods(c, callerID(c), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"paymentMethods": pms})
	}
}

func deletePaymentMethodHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payment method id"})
			return
		}
		if err := svc.DeletePaymentMethod(c, callerID(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted successfully"})
	}
}

type createMerchantReq struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	WebhookURL *string `json:"webhookUrl"`
}

func createMerchantHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createMerchantReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		m, err := svc.CreateMerchant(c, service.CreateMerchantInput{
			Name:       req.Name,
			Email:      req.Email,
			WebhookURL: req.WebhookURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"merchant": m})
	}
}

func listMerchantsHandler(svc *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ms, err := svc.ListMerchants(c)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"merchants": ms})
	}
}
