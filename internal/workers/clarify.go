package workers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/msp-agents/msp/internal/errors"
)

var clarifyClient = &http.Client{Timeout: 10 * time.Second}

// RequestClarification posts a question to the orchestrator's
// control-plane endpoint. A nil error means the question was queued;
// the worker should then exit with a needs_clarification result and
// wait to be re-spawned with the answer.
func RequestClarification(endpoint, question string) error {
	if endpoint == "" {
		return errors.Wrap(errors.ErrInvalidInput, "no clarification endpoint wired")
	}

	body, err := json.Marshal(map[string]any{
		"need_clarification": true,
		"question":           question,
	})
	if err != nil {
		return errors.Wrap(err, "encoding clarification request")
	}

	resp, err := clarifyClient.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "posting clarification request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrInvalidInput,
			"clarification endpoint returned %d", resp.StatusCode)
	}

	var ack struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return errors.Wrap(err, "decoding clarification ack")
	}
	if ack.Status != "received" {
		return errors.Wrap(errors.ErrInvalidInput,
			fmt.Sprintf("unexpected ack status %q", ack.Status))
	}
	return nil
}
