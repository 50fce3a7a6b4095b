// Package response builds the responses the proxy answers locally without
// contacting a backend.
package response

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"privacy-center-proxy/internal/headers"
	"privacy-center-proxy/internal/model"
)

const (
	NotFoundBody         = "Not Found - Only /api/* and /sdk/* routes are supported"
	MethodNotAllowedBody = "Method Not Allowed"
)

// NotFound answers a request whose path matches no backend prefix.
func NotFound() *model.ProxyResponse {
	return plainText(http.StatusNotFound, NotFoundBody)
}

// MethodNotAllowed answers a request with an unsupported method.
func MethodNotAllowed() *model.ProxyResponse {
	resp := plainText(http.StatusMethodNotAllowed, MethodNotAllowedBody)
	resp.Header.Set(echo.HeaderAllow, headers.AllowedMethods)
	return resp
}

// Preflight answers a CORS preflight (OPTIONS) request.
func Preflight() *model.ProxyResponse {
	h := http.Header{}
	headers.SetPreflight(h)
	return &model.ProxyResponse{
		StatusCode: http.StatusOK,
		Header:     h,
		Body:       http.NoBody,
	}
}

func plainText(status int, body string) *model.ProxyResponse {
	h := http.Header{}
	h.Set(echo.HeaderContentType, echo.MIMETextPlain)
	h.Set(echo.HeaderContentLength, strconv.Itoa(len(body)))
	h.Set(headers.AllowOrigin, headers.AnyOrigin)
	return &model.ProxyResponse{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}
