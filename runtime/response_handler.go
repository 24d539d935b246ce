package runtime

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// Envelope opens the inbound request and seals the outbound response. The
// chat platform encrypts both; that codec lives outside this module and
// plugs in here.
type Envelope interface {
	Open(c *gin.Context) (Request, error)
	Seal(c *gin.Context, status int, body any)
}

// PlainEnvelope reads and writes unencrypted JSON.
type PlainEnvelope struct{}

func (PlainEnvelope) Open(c *gin.Context) (Request, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return Request{}, fmt.Errorf("error reading request body: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Request{}, fmt.Errorf("error decoding request body: %w", err)
	}

	var request Request
	if err := MapToStruct(raw, &request); err != nil {
		return Request{}, err
	}
	return request, nil
}

func (PlainEnvelope) Seal(c *gin.Context, status int, body any) {
	if body == nil {
		body = gin.H{}
	}
	c.JSON(status, body)
}
