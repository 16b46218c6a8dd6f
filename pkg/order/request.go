package order

// CreateOrderRequest is the body of POST /api/v1/private/order/createOrder.
// The l2* fields are the signed L2 authorization of the order.
type CreateOrderRequest struct {
	Price         string      `json:"price"`
	Size          string      `json:"size"`
	Type          OrderType   `json:"type"`
	TimeInForce   TimeInForce `json:"timeInForce"`
	AccountID     uint64      `json:"accountId"`
	ContractID    uint64      `json:"contractId"`
	Side          Side        `json:"side"`
	ClientOrderID string      `json:"clientOrderId,omitempty"`

	L2Nonce      uint64 `json:"l2Nonce"`
	L2Value      string `json:"l2Value"`
	L2Size       string `json:"l2Size"`
	L2LimitFee   string `json:"l2LimitFee"`
	L2ExpireTime int64  `json:"l2ExpireTime"` // Unix milliseconds
	L2Signature  string `json:"l2Signature"`
}
