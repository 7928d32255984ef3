package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kimsangheu/stdpay-gateway/internal/checkout"
	"github.com/kimsangheu/stdpay-gateway/internal/metrics"
	"github.com/kimsangheu/stdpay-gateway/internal/models"
	"github.com/kimsangheu/stdpay-gateway/internal/orchestrator"
	"github.com/kimsangheu/stdpay-gateway/internal/telemetry"
)

type PaymentHandler struct {
	builder         *checkout.Builder
	orch            *orchestrator.Orchestrator
	widgetScriptURL string
	baseURL         string
}

func NewPaymentHandler(builder *checkout.Builder, orch *orchestrator.Orchestrator, widgetScriptURL, baseURL string) *PaymentHandler {
	return &PaymentHandler{
		builder:         builder,
		orch:            orch,
		widgetScriptURL: widgetScriptURL,
		baseURL:         baseURL,
	}
}

// Index serves the checkout entry form.
func (h *PaymentHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// StartPayment builds the signed widget parameters for one checkout attempt
// and returns the page that hands them to the stdpay widget.
func (h *PaymentHandler) StartPayment(c *gin.Context) {
	var req struct {
		Price      int64  `form:"price" binding:"required"`
		GoodName   string `form:"goodname"`
		BuyerName  string `form:"buyername"`
		BuyerTel   string `form:"buyertel"`
		BuyerEmail string `form:"buyeremail"`
	}
	if err := c.ShouldBind(&req); err != nil {
		telemetry.Logger.Warn("Invalid checkout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oid := h.builder.NewOrderID()
	payment := h.builder.BuildRequest(checkout.Params{
		Oid:        oid,
		Price:      req.Price,
		GoodName:   req.GoodName,
		BuyerName:  req.BuyerName,
		BuyerTel:   req.BuyerTel,
		BuyerEmail: req.BuyerEmail,
		ReturnURL:  h.baseURL + "/pay/return",
		CloseURL:   h.baseURL + "/pay/close",
	})

	telemetry.Logger.Info("Checkout initiated",
		zap.String("order_id", oid),
		zap.String("price", payment.Price),
	)

	c.HTML(http.StatusOK, "pay.html", gin.H{
		"JsURL":  h.widgetScriptURL,
		"Fields": payment.FormFields(),
	})
}

// Return receives the post-checkout callback from the PG widget. A widget-
// level decline is surfaced verbatim with no backend call; anything else goes
// through the approval orchestrator.
func (h *PaymentHandler) Return(c *gin.Context) {
	var cb models.CallbackPayload
	if err := c.ShouldBind(&cb); err != nil {
		telemetry.Logger.Warn("Malformed PG callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed callback"})
		return
	}

	if !cb.Authenticated() {
		metrics.CallbacksTotal.WithLabelValues("declined").Inc()
		telemetry.Logger.Info("Checkout declined at widget",
			zap.String("order_id", cb.OrderNumber),
			zap.String("result_code", cb.ResultCode),
			zap.String("result_msg", cb.ResultMsg),
		)
		result := &models.ApprovalResult{
			ResultCode: cb.ResultCode,
			ResultMsg:  cb.ResultMsg,
			Moid:       cb.OrderNumber,
			GoodName:   cb.GoodName,
		}
		c.Set("approval_result", result)
		RenderResult(c, result)
		return
	}

	result := h.orch.Approve(c.Request.Context(), &cb)
	if result.Succeeded() {
		metrics.CallbacksTotal.WithLabelValues("approved").Inc()
	} else {
		metrics.CallbacksTotal.WithLabelValues("failed").Inc()
	}

	c.Set("approval_result", result)
	RenderResult(c, result)
}

// Close serves the page the widget loads into its close frame.
func (h *PaymentHandler) Close(c *gin.Context) {
	c.HTML(http.StatusOK, "close.html", nil)
}

// RenderResult renders the buyer-facing page for a terminal result.
func RenderResult(c *gin.Context, result *models.ApprovalResult) {
	if result.Succeeded() {
		c.HTML(http.StatusOK, "success.html", result)
		return
	}
	c.HTML(http.StatusOK, "failure.html", result)
}
