package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/application/settlement"
)

// SettlementHandler handles cron-triggered settlement endpoints
type SettlementHandler struct {
	BaseHandler
	sweep   *settlement.Service
	retries *appfulfillment.RetryService
	logger  *zap.Logger
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(sweep *settlement.Service, retries *appfulfillment.RetryService, logger *zap.Logger) *SettlementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementHandler{
		sweep:   sweep,
		retries: retries,
		logger:  logger,
	}
}

// RunAffiliateApproval godoc
//
//	@ID				runAffiliateApprovalSettlement
//	@Summary		Run the affiliate commission settlement sweep
//	@Description	Settles every pending commission past the hold period and triggers due fulfillment retries
//	@Tags			settlement
//	@Produce		json
//	@Success		200	{object}	APIResponse[settlement.SweepSummary]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/affiliate-approve-cron [post]
func (h *SettlementHandler) RunAffiliateApproval(c *gin.Context) {
	summary, err := h.sweep.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("settlement sweep failed",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		h.InternalError(c, "Settlement sweep failed")
		return
	}

	h.Success(c, summary)
}

// RunFulfillmentRetries godoc
//
//	@ID				runFulfillmentRetriesSettlement
//	@Summary		Run the fulfillment retry sweep
//	@Description	Triggers one fulfillment attempt for every queue entry that is due a retry
//	@Tags			settlement
//	@Produce		json
//	@Success		200	{object}	APIResponse[fulfillment.RetrySummary]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/fulfillment-retry-cron [post]
func (h *SettlementHandler) RunFulfillmentRetries(c *gin.Context) {
	summary, err := h.retries.RunSweep(c.Request.Context())
	if err != nil {
		h.logger.Error("fulfillment retry sweep failed",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		h.InternalError(c, "Fulfillment retry sweep failed")
		return
	}

	h.Success(c, summary)
}
