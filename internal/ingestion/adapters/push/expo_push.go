package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

// Expo caps each push API request at this many messages.
const maxMessagesPerRequest = 100

var expoTokenPattern = regexp.MustCompile(`^ExponentPushToken\[[A-Za-z0-9_-]+\]$`)

// ExpoSender delivers notifications through the Expo push API.
type ExpoSender struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	timeout    time.Duration
}

func NewExpoSender(logger *slog.Logger, apiURL string, timeout time.Duration, httpClient *http.Client) *ExpoSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &ExpoSender{
		logger:     logger.With("component", "expo_push"),
		httpClient: httpClient,
		apiURL:     apiURL,
		timeout:    timeout,
	}
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type expoTicketResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

// FilterTokens de-duplicates tokens and keeps only well-formed Expo tokens.
func FilterTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var valid []string
	for _, tok := range tokens {
		if !expoTokenPattern.MatchString(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		valid = append(valid, tok)
	}
	return valid
}

func (s *ExpoSender) Send(ctx context.Context, tokens []string, notification Notification) ([]Ticket, error) {
	valid := FilterTokens(tokens)
	if len(valid) == 0 {
		s.logger.DebugContext(ctx, "No valid push tokens after filtering", "raw_count", len(tokens))
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var tickets []Ticket
	for start := 0; start < len(valid); start += maxMessagesPerRequest {
		end := start + maxMessagesPerRequest
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]

		chunkTickets, err := s.sendChunk(callCtx, chunk, notification)
		if err != nil {
			// Partial delivery is acceptable; report what got through.
			return tickets, err
		}
		tickets = append(tickets, chunkTickets...)
	}

	s.logger.InfoContext(ctx, "Push notifications dispatched", "token_count", len(valid), "ticket_count", len(tickets))
	return tickets, nil
}

func (s *ExpoSender) sendChunk(ctx context.Context, tokens []string, notification Notification) ([]Ticket, error) {
	messages := make([]expoMessage, 0, len(tokens))
	for _, tok := range tokens {
		messages = append(messages, expoMessage{
			To:    tok,
			Title: notification.Title,
			Body:  notification.Body,
			Data:  notification.Data,
		})
	}

	reqBytes, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push messages: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create push request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("push call failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read push response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		s.logger.WarnContext(ctx, "Push service returned non-success status", "status_code", httpResp.StatusCode)
		return nil, fmt.Errorf("push service returned status %d", httpResp.StatusCode)
	}

	var resp expoTicketResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("malformed push response: %w", err)
	}

	tickets := make([]Ticket, 0, len(resp.Data))
	for _, t := range resp.Data {
		tickets = append(tickets, Ticket{ID: t.ID, Status: t.Status, Message: t.Message})
	}
	return tickets, nil
}
