package amqp

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEncodeEnvelope(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	body, err := Encode("attempt.submitted", map[string]any{"quizId": "quiz-1", "score": 10}, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded struct {
		Type       string         `json:"type"`
		Payload    map[string]any `json:"payload"`
		OccurredAt time.Time      `json:"occurredAt"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != "attempt.submitted" || decoded.Payload["quizId"] != "quiz-1" {
		t.Fatalf("unexpected envelope %+v", decoded)
	}
	if !decoded.OccurredAt.Equal(at) || decoded.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", decoded.OccurredAt)
	}
}
