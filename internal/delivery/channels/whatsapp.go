// Package channels chứa các kênh gửi message ra ngoài.
package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sistema_restaurante/internal/logger"
)

// WhatsAppGateway gửi message văn bản qua HTTP API của gateway WhatsApp.
// Implement wasvc.TextGateway.
type WhatsAppGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewWhatsAppGateway tạo mới WhatsAppGateway.
// timeout = 0 dùng mặc định 10s.
func NewWhatsAppGateway(baseURL string, token string, timeout time.Duration) *WhatsAppGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// SendText gửi một message văn bản tới destination (số đã gắn mã quốc gia).
func (g *WhatsAppGateway) SendText(ctx context.Context, destination string, body string) error {
	log := logger.GetAppLogger()

	payload := map[string]interface{}{
		"to":   destination,
		"type": "text",
		"text": body,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := g.baseURL + "/messages"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"destination": destination,
			"url":         url,
		}).Error("📱 [WHATSAPP] Lỗi khi gọi gateway API")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.WithFields(map[string]interface{}{
			"destination": destination,
			"statusCode":  resp.StatusCode,
			"response":    string(bodyBytes),
		}).Error("📱 [WHATSAPP] Gateway API trả về lỗi")
		return fmt.Errorf("whatsapp gateway returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	log.WithField("destination", destination).Debug("📱 [WHATSAPP] Gửi message thành công")
	return nil
}
