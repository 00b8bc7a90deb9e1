package web

import (
	"winterbot/auth"
	"winterbot/internal/bot"
	"winterbot/internal/db"
	"winterbot/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

const (
	appKey    = "winterbot.app"
	handleKey = "winterbot.handle"
)

// Application is what request handlers can reach through the providers.
type Application interface {
	Bot() *bot.Bot
	// Auth is nil when the API runs without a JWT secret.
	Auth() *auth.AuthModule
}

// Provide stores app and a fresh db.Handle on every request. The handle is
// bound to the bot's pool and is released once the handler chain returns.
func Provide(app Application) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := db.NewHandle(app.Bot().Pool())
		c.Set(appKey, app)
		c.Set(handleKey, h)

		// Handlers that call Conn would otherwise keep the connection
		// checked out after the response is written.
		defer h.Release()
		c.Next()
	}
}

// App returns the application stored by Provide.
func App(c *gin.Context) Application {
	return c.MustGet(appKey).(Application)
}

// Bot returns the running bot.
func Bot(c *gin.Context) *bot.Bot {
	return App(c).Bot()
}

// Conn returns the request's handle.
func Conn(c *gin.Context) *db.Handle {
	return c.MustGet(handleKey).(*db.Handle)
}

// Guard requires a bearer token when the application has auth configured
// and lets every request through otherwise.
func Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		am := App(c).Auth()
		if am == nil {
			c.Next()
			return
		}
		middleware.RequireAuth(am)(c)
	}
}
