package public

import (
	"errors"

	"github.com/bottega-next/internal/http/response"
	"github.com/bottega-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var discountErrorRules = []mappedHandlerError{
	{target: service.ErrDiscountNotFound, code: response.CodeBadRequest, msg: "discount code not found"},
	{target: service.ErrDiscountInactive, code: response.CodeBadRequest, msg: "discount code inactive"},
	{target: service.ErrDiscountExpired, code: response.CodeBadRequest, msg: "discount code expired"},
	{target: service.ErrDiscountExhausted, code: response.CodeBadRequest, msg: "discount code usage limit reached"},
	{target: service.ErrDiscountMinPurchase, code: response.CodeBadRequest, msg: "order total below discount minimum"},
	{target: service.ErrDiscountInvalid, code: response.CodeBadRequest, msg: "discount code invalid"},
}

var checkoutErrorRules = append([]mappedHandlerError{
	{target: service.ErrOrderEmpty, code: response.CodeBadRequest, msg: "order has no items"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "order item invalid"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "email address invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrStockInsufficient, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrPaymentProviderUnknown, code: response.CodeBadRequest, msg: "payment provider unknown"},
	{target: service.ErrGatewayFailed, code: response.CodeInternal, msg: "payment gateway unavailable"},
}, discountErrorRules...)

var trackErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "email address invalid"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCartNotFound, code: response.CodeNotFound, msg: "cart not found"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart has no items"},
}
