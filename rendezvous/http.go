package rendezvous

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/types"
)

// HTTPTransport talks to a rendezvous server over its HTTP surface:
// POST rooms/<room>/issue_unique_idx, POST rooms/<room>/broadcast,
// GET rooms/<room>/subscribe (server-sent events), GET/POST rooms/<room>/status.
// Every request carries the X-Request-ID and X-Token headers.
type HTTPTransport struct {
	base      *url.URL
	requestID string
	token     string
	client    *http.Client
}

func NewHTTPTransport(address, requestID, token string) (*HTTPTransport, error) {
	base, err := url.Parse(address)
	if err != nil {
		return nil, errors.Wrap(err, "parse rendezvous address")
	}
	return &HTTPTransport{
		base:      base,
		requestID: requestID,
		token:     token,
		// Subscriptions are long-lived; no client-level timeout.
		client: &http.Client{},
	}, nil
}

func (t *HTTPTransport) roomURL(room, endpoint string) string {
	u := *t.base
	u.Path = strings.TrimSuffix(u.Path, "/") + fmt.Sprintf("/rooms/%s/%s", room, endpoint)
	return u.String()
}

func (t *HTTPTransport) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", t.requestID)
	req.Header.Set("X-Token", t.token)
	return req, nil
}

func (t *HTTPTransport) IssueIndex(ctx context.Context, room string, idxReq types.IssueIndexRequest) (uint16, error) {
	payload, err := json.Marshal(&idxReq)
	if err != nil {
		return 0, errors.Wrap(err, "serialize issue index message")
	}
	req, err := t.newRequest(ctx, http.MethodPost, t.roomURL(room, "issue_unique_idx"), bytes.NewReader(payload))
	if err != nil {
		return 0, errors.Wrap(err, "build issue index request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "issue an index")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return 0, errors.Errorf("issue an index: unexpected status %s", resp.Status)
	}
	var issued struct {
		UniqueIdx uint16 `json:"unique_idx"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issued); err != nil {
		return 0, errors.Wrap(err, "decode issued index")
	}
	return issued.UniqueIdx, nil
}

func (t *HTTPTransport) Broadcast(ctx context.Context, room string, payload []byte) error {
	req, err := t.newRequest(ctx, http.MethodPost, t.roomURL(room, "broadcast"), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build broadcast request")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "broadcast message")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("broadcast message: unexpected status %s", resp.Status)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Subscribe opens the room's event stream and yields each message event's
// body. The channel closes when ctx is canceled or the stream ends.
func (t *HTTPTransport) Subscribe(ctx context.Context, room string) (<-chan []byte, error) {
	req, err := t.newRequest(ctx, http.MethodGet, t.roomURL(room, "subscribe"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build subscribe request")
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe")
	}
	if resp.StatusCode/100 != 2 {
		resp.Body.Close()
		return nil, errors.Errorf("subscribe: unexpected status %s", resp.Status)
	}
	out := make(chan []byte)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		var data []string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if len(data) > 0 {
					select {
					case out <- []byte(strings.Join(data, "\n")):
					case <-ctx.Done():
						return
					}
					data = nil
				}
			case strings.HasPrefix(line, "data:"):
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			default:
				// comments and event/id/retry fields are not needed here
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			common.Logger.Errorf("room %s: event stream failed: %v", room, err)
		}
	}()
	return out, nil
}

func (t *HTTPTransport) Progress(ctx context.Context, room string) (*types.KeygenProgress, error) {
	req, err := t.newRequest(ctx, http.MethodGet, t.roomURL(room, "status"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build status request")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get status")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("get status: unexpected status %s", resp.Status)
	}
	var progress types.KeygenProgress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		return nil, errors.Wrap(err, "decode status")
	}
	return &progress, nil
}

func (t *HTTPTransport) PostStatus(ctx context.Context, room string, percent int) error {
	req, err := t.newRequest(ctx, http.MethodPost, t.roomURL(room, "status"), strings.NewReader(fmt.Sprintf("%d", percent)))
	if err != nil {
		return errors.Wrap(err, "build status post")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post status")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}
