package smsprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// TelnyxProvider sends outbound messages through the Telnyx v2 messages API.
type TelnyxProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

func NewTelnyxProvider(logger *slog.Logger, apiURL, apiKey string, httpClient *http.Client) *TelnyxProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TelnyxProvider{
		logger:     logger.With("provider", "telnyx"),
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

type telnyxSendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type telnyxSendResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type telnyxErrorResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (p *TelnyxProvider) GetName() string {
	return "telnyx"
}

func (p *TelnyxProvider) Send(ctx context.Context, request SendRequest) (*SendResponse, error) {
	reqBytes, err := json.Marshal(telnyxSendRequest{
		From: request.From,
		To:   request.To,
		Text: request.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for Telnyx: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request for Telnyx: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	p.logger.DebugContext(ctx, "Sending HTTP request to Telnyx", "url", p.apiURL, "to", request.To)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to send request to Telnyx", "error", err, "to", request.To)
		return nil, fmt.Errorf("failed to send request to Telnyx: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		p.logger.ErrorContext(ctx, "Failed to read Telnyx response body", "status_code", httpResp.StatusCode, "error", readErr)
		return &SendResponse{
			Success:      false,
			StatusCode:   httpResp.StatusCode,
			ErrorMessage: fmt.Sprintf("Telnyx request returned status %d, response body unreadable: %v", httpResp.StatusCode, readErr),
			ProviderName: p.GetName(),
		}, fmt.Errorf("Telnyx request returned status %d, response body unreadable: %w", httpResp.StatusCode, readErr)
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		var sendResp telnyxSendResponse
		if err := json.Unmarshal(respBody, &sendResp); err != nil {
			// HTTP-level success; the message left even if the body is odd.
			p.logger.WarnContext(ctx, "Telnyx send succeeded but response body did not parse", "status_code", httpResp.StatusCode, "error", err)
			return &SendResponse{
				Success:      true,
				StatusCode:   httpResp.StatusCode,
				ProviderName: p.GetName(),
			}, nil
		}
		p.logger.InfoContext(ctx, "Outbound message accepted by Telnyx", "provider_message_id", sendResp.Data.ID, "to", request.To)
		return &SendResponse{
			ProviderMessageID: sendResp.Data.ID,
			Success:           true,
			StatusCode:        httpResp.StatusCode,
			ProviderName:      p.GetName(),
		}, nil
	}

	errMsg := fmt.Sprintf("Telnyx API error: status %d", httpResp.StatusCode)
	var errResp telnyxErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && len(errResp.Errors) > 0 {
		errMsg = fmt.Sprintf("Telnyx API error: status %d, code %s: %s", httpResp.StatusCode, errResp.Errors[0].Code, errResp.Errors[0].Title)
	} else if len(respBody) > 0 && len(respBody) < 200 {
		errMsg = fmt.Sprintf("Telnyx API error: status %d, raw_body: %s", httpResp.StatusCode, string(respBody))
	}

	p.logger.WarnContext(ctx, "Telnyx send failed", "status_code", httpResp.StatusCode, "error_message", errMsg, "to", request.To)
	return &SendResponse{
		Success:      false,
		StatusCode:   httpResp.StatusCode,
		ErrorMessage: errMsg,
		ProviderName: p.GetName(),
	}, fmt.Errorf("%s", errMsg)
}
