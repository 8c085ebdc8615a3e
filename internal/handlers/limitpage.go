package handlers

import (
	"html/template"
	"net/http"
)

var limitPage = template.Must(template.New("limit").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Scan limit reached</title>
</head>
<body>
<main>
<h1>This QR code is temporarily unavailable</h1>
<p>The owner of this code has reached the monthly scan limit of their plan.</p>
<p>Please try again later or contact the owner.</p>
</main>
</body>
</html>
`))

func writeLimitPage(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = limitPage.Execute(w, nil)
}

// ScanLimitPage страница исчерпанного лимита по прямой ссылке.
func (h *Handler) ScanLimitPage(w http.ResponseWriter, _ *http.Request) {
	writeLimitPage(w, http.StatusOK)
}

// LimitReached ответ на скан сверх месячного лимита владельца.
func (h *Handler) LimitReached(w http.ResponseWriter, _ *http.Request) {
	writeLimitPage(w, http.StatusTooManyRequests)
}
