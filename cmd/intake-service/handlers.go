package main

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abuqatada01/order-intake/internal/intake"
)

// Bodies past this size are a client defect, not a storage concern.
const maxBodyBytes = 1 << 20

// ErrorResponse is the structured failure body.
// swagger:model
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorKind string `json:"errorKind,omitempty"`
}

// createOrderHandler runs the intake workflow for one request.
//
// @Summary      Create an order
// @Description  Validates the purchase payload, creates a payment-gateway order (or synthesizes a COD id) and persists the order document.
// @Accept       json
// @Produce      json
// @Param        order  body      intake.CreateOrderRequest  true  "purchase payload"
// @Success      200    {object}  intake.Result
// @Failure      400    {object}  ErrorResponse
// @Failure      503    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /orders [post]
func createOrderHandler(wf *intake.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message:   "could not read request body",
				ErrorKind: string(intake.KindMalformedPayload),
			})
			return
		}

		res, werr := wf.Process(c.Request.Context(), raw)
		if werr != nil {
			c.JSON(werr.HTTPStatus(), ErrorResponse{
				Message:   werr.Message,
				ErrorKind: string(werr.Kind),
			})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// livenessHandler answers the GET probe with a plain string.
//
// @Summary  Liveness probe
// @Produce  plain
// @Success  200 {string} string "order intake service is live"
// @Router   /orders [get]
func livenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "order intake service is live")
	}
}

func methodNotAllowedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
			Message: "method not allowed",
		})
	}
}
