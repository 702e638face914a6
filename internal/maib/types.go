package maib

// Item is one order line shown on the bank payment page.
type Item struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Quantity float64 `json:"quantity,omitempty"`
}

// PayRequest is the parameter set for the pay and hold endpoints.
// Required: Amount, Currency, ClientIP.
type PayRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	ClientIP    string  `json:"clientIp"`
	Language    string  `json:"language,omitempty"`
	Description string  `json:"description,omitempty"`
	ClientName  string  `json:"clientName,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	OrderID     string  `json:"orderId,omitempty"`
	Delivery    float64 `json:"delivery,omitempty"`
	Items       []Item  `json:"items,omitempty"`
	CallbackURL string  `json:"callbackUrl,omitempty"`
	OkURL       string  `json:"okUrl,omitempty"`
	FailURL     string  `json:"failUrl,omitempty"`
}

type PayResult struct {
	PayID   string `json:"payId"`
	OrderID string `json:"orderId"`
	PayURL  string `json:"payUrl"`
}

// CompleteRequest captures a previously held two-step payment.
type CompleteRequest struct {
	PayID         string  `json:"payId"`
	ConfirmAmount float64 `json:"confirmAmount,omitempty"`
}

type RefundRequest struct {
	PayID        string  `json:"payId"`
	RefundAmount float64 `json:"refundAmount,omitempty"`
}

// TransactionResult is returned by complete, refund and the execute-* endpoints.
type TransactionResult struct {
	PayID         string  `json:"payId"`
	OrderID       string  `json:"orderId"`
	Status        string  `json:"status"`
	StatusCode    string  `json:"statusCode"`
	StatusMessage string  `json:"statusMessage"`
	ConfirmAmount float64 `json:"confirmAmount,omitempty"`
	RefundAmount  float64 `json:"refundAmount,omitempty"`
	BillerID      string  `json:"billerId,omitempty"`
}

// PaymentInfo is the pay-info inquiry result.
type PaymentInfo struct {
	PayID         string  `json:"payId"`
	OrderID       string  `json:"orderId"`
	Status        string  `json:"status"`
	StatusCode    string  `json:"statusCode"`
	StatusMessage string  `json:"statusMessage"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	ThreeDs       string  `json:"threeDs,omitempty"`
	RRN           string  `json:"rrn,omitempty"`
	Approval      string  `json:"approval,omitempty"`
	CardNumber    string  `json:"cardNumber,omitempty"`
}

// SaveCardRequest registers a card for recurring or one-click payments.
// Required: BillerExpiry, Currency, ClientIP. Amount, when present, is the
// initial charge.
type SaveCardRequest struct {
	BillerExpiry string  `json:"billerExpiry"`
	Currency     string  `json:"currency"`
	ClientIP     string  `json:"clientIp"`
	Amount       float64 `json:"amount,omitempty"`
	Language     string  `json:"language,omitempty"`
	Description  string  `json:"description,omitempty"`
	ClientName   string  `json:"clientName,omitempty"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	OrderID      string  `json:"orderId,omitempty"`
	CallbackURL  string  `json:"callbackUrl,omitempty"`
	OkURL        string  `json:"okUrl,omitempty"`
	FailURL      string  `json:"failUrl,omitempty"`
}

// ExecuteRecurringRequest charges a saved recurring card.
// Required: BillerID, Amount, Currency.
type ExecuteRecurringRequest struct {
	BillerID    string  `json:"billerId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Language    string  `json:"language,omitempty"`
	Description string  `json:"description,omitempty"`
	OrderID     string  `json:"orderId,omitempty"`
}

// ExecuteOneclickRequest charges a saved one-click card.
// Required: BillerID, Amount, Currency, ClientIP.
type ExecuteOneclickRequest struct {
	BillerID    string  `json:"billerId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	ClientIP    string  `json:"clientIp"`
	Language    string  `json:"language,omitempty"`
	Description string  `json:"description,omitempty"`
	OrderID     string  `json:"orderId,omitempty"`
	CallbackURL string  `json:"callbackUrl,omitempty"`
	OkURL       string  `json:"okUrl,omitempty"`
	FailURL     string  `json:"failUrl,omitempty"`
}

type DeleteCardResult struct {
	BillerID string `json:"billerId"`
	Status   string `json:"status"`
}

// TokenRequest obtains a bearer token pair: either ProjectID+ProjectSecret or
// RefreshToken must be set.
type TokenRequest struct {
	ProjectID     string `json:"projectId,omitempty"`
	ProjectSecret string `json:"projectSecret,omitempty"`
	RefreshToken  string `json:"refreshToken,omitempty"`
}

type TokenResult struct {
	AccessToken      string `json:"accessToken"`
	ExpiresIn        int    `json:"expiresIn"`
	RefreshToken     string `json:"refreshToken"`
	RefreshExpiresIn int    `json:"refreshExpiresIn"`
	TokenType        string `json:"tokenType"`
}
