package mercadopago

// Preference is the hosted-checkout session returned by the processor.
// The buyer is redirected to InitPoint (SandboxInitPoint in sandbox).
type Preference struct {
	ID                string `json:"id"`
	InitPoint         string `json:"init_point"`
	SandboxInitPoint  string `json:"sandbox_init_point"`
	ExternalReference string `json:"external_reference"`
}

// Payment is the processor's payment resource, as returned by both the
// direct-charge endpoint and the lookup endpoint.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
}

// apiError is the processor's error envelope.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}
