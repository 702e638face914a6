package maib

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
)

// Field contract shared by the payment endpoints. Rules apply to whichever
// fields are present; each endpoint additionally declares its required set.

var supportedCurrencies = map[string]bool{"MDL": true, "EUR": true, "USD": true}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func checkRequiredAmount(v float64) error {
	if v < 1 {
		return invalid("amount", "should be a numeric value >= 1")
	}
	return nil
}

func checkOptionalAmount(field string, v float64) error {
	if v < 0 {
		return invalid(field, "should be a numeric value >= 0")
	}
	return nil
}

func checkCurrency(c string) error {
	if !supportedCurrencies[c] {
		return invalid("currency", "should be one of 'MDL', 'EUR' or 'USD'")
	}
	return nil
}

func checkClientIP(ip string) error {
	if net.ParseIP(ip) == nil {
		return invalid("clientIp", "should be a valid IP address")
	}
	return nil
}

func checkExactLen(field, v string, n int) error {
	if v != "" && len(v) != n {
		return invalid(field, fmt.Sprintf("should be a string of %d characters", n))
	}
	return nil
}

func checkMaxLen(field, v string, n int) error {
	if len(v) > n {
		return invalid(field, fmt.Sprintf("should not exceed %d characters", n))
	}
	return nil
}

func checkEmail(v string) error {
	if v == "" {
		return nil
	}
	if _, err := mail.ParseAddress(v); err != nil {
		return invalid("email", "should be a valid email address")
	}
	return nil
}

func checkURL(field, v string) error {
	if v == "" {
		return nil
	}
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(field, "should be a valid url")
	}
	return nil
}

func checkItems(items []Item) error {
	if items == nil {
		return nil
	}
	if len(items) == 0 {
		return invalid("items", "should be a non-empty array")
	}
	for _, item := range items {
		if err := checkMaxLen("items.id", item.ID, 36); err != nil {
			return err
		}
		if err := checkMaxLen("items.name", item.Name, 128); err != nil {
			return err
		}
		if item.Price < 0 {
			return invalid("items.price", "should be a numeric value >= 0")
		}
		if item.Quantity < 0 {
			return invalid("items.quantity", "should be a numeric value >= 0")
		}
	}
	return nil
}

// checkPayID allows up to 36 characters; required presence is checked by the
// endpoint that needs it.
func checkPayID(v string, required bool) error {
	if v == "" {
		if required {
			return invalid("payId", "missing required parameter")
		}
		return nil
	}
	if len(v) > 36 {
		return invalid("payId", "should be a string of up to 36 characters")
	}
	return nil
}

func checkLanguage(v string) error {
	return checkExactLen("language", v, 2)
}

func checkCommonOrderFields(description, clientName, email, phone, orderID string) error {
	if err := checkMaxLen("description", description, 124); err != nil {
		return err
	}
	if err := checkMaxLen("clientName", clientName, 128); err != nil {
		return err
	}
	if err := checkEmail(email); err != nil {
		return err
	}
	if err := checkMaxLen("phone", phone, 40); err != nil {
		return err
	}
	return checkMaxLen("orderId", orderID, 36)
}

func checkCallbackURLs(callbackURL, okURL, failURL string) error {
	if err := checkURL("callbackUrl", callbackURL); err != nil {
		return err
	}
	if err := checkURL("okUrl", okURL); err != nil {
		return err
	}
	return checkURL("failUrl", failURL)
}

func (r PayRequest) Validate() error {
	if err := checkRequiredAmount(r.Amount); err != nil {
		return err
	}
	if err := checkCurrency(r.Currency); err != nil {
		return err
	}
	if err := checkClientIP(r.ClientIP); err != nil {
		return err
	}
	if err := checkLanguage(r.Language); err != nil {
		return err
	}
	if err := checkCommonOrderFields(r.Description, r.ClientName, r.Email, r.Phone, r.OrderID); err != nil {
		return err
	}
	if err := checkOptionalAmount("delivery", r.Delivery); err != nil {
		return err
	}
	if err := checkItems(r.Items); err != nil {
		return err
	}
	return checkCallbackURLs(r.CallbackURL, r.OkURL, r.FailURL)
}

func (r CompleteRequest) Validate() error {
	if err := checkPayID(r.PayID, true); err != nil {
		return err
	}
	return checkOptionalAmount("confirmAmount", r.ConfirmAmount)
}

func (r RefundRequest) Validate() error {
	if err := checkPayID(r.PayID, true); err != nil {
		return err
	}
	return checkOptionalAmount("refundAmount", r.RefundAmount)
}

func (r SaveCardRequest) Validate() error {
	if r.BillerExpiry == "" {
		return invalid("billerExpiry", "missing required parameter")
	}
	if err := checkExactLen("billerExpiry", r.BillerExpiry, 4); err != nil {
		return err
	}
	if err := checkCurrency(r.Currency); err != nil {
		return err
	}
	if err := checkClientIP(r.ClientIP); err != nil {
		return err
	}
	if r.Amount != 0 {
		if err := checkRequiredAmount(r.Amount); err != nil {
			return err
		}
	}
	if err := checkLanguage(r.Language); err != nil {
		return err
	}
	if err := checkCommonOrderFields(r.Description, r.ClientName, r.Email, r.Phone, r.OrderID); err != nil {
		return err
	}
	return checkCallbackURLs(r.CallbackURL, r.OkURL, r.FailURL)
}

func (r ExecuteRecurringRequest) Validate() error {
	if r.BillerID == "" {
		return invalid("billerId", "missing required parameter")
	}
	if err := checkExactLen("billerId", r.BillerID, 36); err != nil {
		return err
	}
	if err := checkRequiredAmount(r.Amount); err != nil {
		return err
	}
	if err := checkCurrency(r.Currency); err != nil {
		return err
	}
	if err := checkLanguage(r.Language); err != nil {
		return err
	}
	if err := checkMaxLen("description", r.Description, 124); err != nil {
		return err
	}
	return checkMaxLen("orderId", r.OrderID, 36)
}

func (r ExecuteOneclickRequest) Validate() error {
	if r.BillerID == "" {
		return invalid("billerId", "missing required parameter")
	}
	if err := checkExactLen("billerId", r.BillerID, 36); err != nil {
		return err
	}
	if err := checkRequiredAmount(r.Amount); err != nil {
		return err
	}
	if err := checkCurrency(r.Currency); err != nil {
		return err
	}
	if err := checkClientIP(r.ClientIP); err != nil {
		return err
	}
	if err := checkLanguage(r.Language); err != nil {
		return err
	}
	if err := checkMaxLen("description", r.Description, 124); err != nil {
		return err
	}
	if err := checkMaxLen("orderId", r.OrderID, 36); err != nil {
		return err
	}
	return checkCallbackURLs(r.CallbackURL, r.OkURL, r.FailURL)
}

func (r TokenRequest) Validate() error {
	if r.RefreshToken == "" && (r.ProjectID == "" || r.ProjectSecret == "") {
		return invalid("projectId", "project id and secret or refresh token must be provided")
	}
	return nil
}

func checkIDParam(id string) error {
	if len(id) != 36 {
		return invalid("id", "should be a string of 36 characters")
	}
	return nil
}

func checkAccessToken(token string) error {
	if token == "" {
		return invalid("token", "access token should be a non-empty string")
	}
	return nil
}
