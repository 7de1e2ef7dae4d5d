package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by outbound calls to partner services (payment provider).
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
