package runtime

import (
	"log/slog"
	"net/http"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
)

// ServerConfig holds the HTTP server and logging settings.
type ServerConfig struct {
	Port            int           `yaml:"port" default:"3000" validate:"gte=1,lte=65535"`
	Env             string        `yaml:"env" default:"development" validate:"required"`
	LogLevel        string        `yaml:"log_level" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `yaml:"log_format" default:"text" validate:"oneof=text json"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gte=0"`
	TraceOutput     string        `yaml:"trace_output"`
}

const (
	FlowTokenParam = "flowToken"
)

// NewRouter builds a gin engine with recovery and slog access logging.
func NewRouter(l *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, _ *slog.Logger) *slog.Logger {
			return l
		}),
	))
	return router
}

// NewHttpHandler registers the flow endpoint, the health check and the
// prefetch lookup on g.
func NewHttpHandler(dispatcher *Dispatcher, store PrefetchStore, envelope Envelope, l *slog.Logger, g *gin.Engine) {
	if envelope == nil {
		envelope = PlainEnvelope{}
	}

	flow := handleRequest(dispatcher, envelope, l)
	g.POST("/", flow)
	g.POST("/flow", flow)

	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "active"})
	})

	g.GET("/flights/:"+FlowTokenParam, handlePrefetched(store, l))
}

func handleRequest(dispatcher *Dispatcher, envelope Envelope, l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, err := envelope.Open(c)
		if err != nil {
			l.WarnContext(c.Request.Context(), "Rejected request body", Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"message": "Wrong request body format"})
			return
		}

		response, err := dispatcher.GetNextScreen(c.Request.Context(), request)
		if err != nil {
			status := http.StatusInternalServerError
			if flowErr, ok := AsFlowError(err); ok {
				status = flowErr.HTTPStatus()
			}
			l.ErrorContext(c.Request.Context(), "Flow request failed",
				ActionName(request.Action),
				ScreenName(request.Screen),
				FlowToken(request.FlowToken),
				Error(err))
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}

		envelope.Seal(c, http.StatusOK, response)
	}
}

func handlePrefetched(store PrefetchStore, l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param(FlowTokenParam)
		if store == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "No flights cached for " + token})
			return
		}

		rows, ok, err := store.Get(c.Request.Context(), token)
		if err != nil {
			l.ErrorContext(c.Request.Context(), "Prefetch lookup failed", FlowToken(token), Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading cached flights: " + err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "No flights cached for " + token})
			return
		}

		c.JSON(http.StatusOK, gin.H{"flow_token": token, "rows": rows})
	}
}
