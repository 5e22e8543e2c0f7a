package oauth

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var callbackPage = template.Must(template.New("callback").Parse(`<!doctype html>
<html><head><title>jobboard</title></head><body>
<h2>{{.Heading}}</h2>
<p>{{.Detail}}</p>
</body></html>`))

type callbackView struct {
	Heading string
	Detail  string
}

// RegisterRoutes mounts the redirect handler on r.
func (c *Client) RegisterRoutes(r gin.IRouter) {
	r.GET(c.CallbackPath(), c.Callback)
}

// Callback handles the provider redirect after user authorization.
func (c *Client) Callback(g *gin.Context) {
	res, err := c.complete(g.Request.Context(), g.Request.URL.Query())
	if errors.Is(err, errUnknownRequest) {
		c.logger.Warn("rejected oauth callback", slog.String("error", err.Error()))
		renderCallback(g, http.StatusBadRequest, callbackView{
			Heading: "Sign-in link expired",
			Detail:  "Start sign-in again from jobboard.",
		})
		return
	}

	switch res.Status {
	case StatusSuccess:
		renderCallback(g, http.StatusOK, callbackView{
			Heading: "Signed in",
			Detail:  "You can close this window and return to jobboard.",
		})
	case StatusCancelled:
		renderCallback(g, http.StatusOK, callbackView{
			Heading: "Sign-in cancelled",
			Detail:  "You can close this window.",
		})
	default:
		renderCallback(g, http.StatusBadGateway, callbackView{
			Heading: "Sign-in failed",
			Detail:  res.Reason,
		})
	}
}

func renderCallback(g *gin.Context, status int, v callbackView) {
	g.Status(status)
	g.Header("Content-Type", "text/html; charset=utf-8")
	if err := callbackPage.Execute(g.Writer, v); err != nil {
		_ = g.Error(err)
	}
}

// NewCallbackServer returns an http.Server that serves only the redirect
// endpoint of c.
func NewCallbackServer(c *Client) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	c.RegisterRoutes(router)
	return &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
