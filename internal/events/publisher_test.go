package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/config"
)

func TestNewPublisherDisabled(t *testing.T) {
	_, err := NewPublisher(config.EventsConfig{Enabled: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestRunCompletedPayloadShape(t *testing.T) {
	event := RunCompleted{
		RunID:              "abc",
		RootDocument:       "main.tex",
		Verdict:            "generated_templates",
		GeneratedTemplates: true,
		FinishedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "generated_templates", decoded["verdict"])
	assert.Equal(t, true, decoded["generated_templates"])
	assert.Equal(t, false, decoded["build_failed"])
}
