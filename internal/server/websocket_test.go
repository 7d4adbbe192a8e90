package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwerff/ExcelAiRate-sub000/internal/server"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

func TestBuildFilter(t *testing.T) {
	matchRun := &api.Event{Type: api.EventStepFailed, RunID: "run-1"}
	otherRun := &api.Event{Type: api.EventStepFailed, RunID: "run-2"}
	otherType := &api.Event{Type: api.EventStepStarted, RunID: "run-1"}

	all := server.BuildFilter(&api.SubscribeRequest{Type: "subscribe"})
	assert.True(t, all(matchRun))
	assert.True(t, all(otherRun))

	byRun := server.BuildFilter(&api.SubscribeRequest{
		Type:  "subscribe",
		RunID: "run-1",
	})
	assert.True(t, byRun(matchRun))
	assert.False(t, byRun(otherRun))

	byType := server.BuildFilter(&api.SubscribeRequest{
		Type:  "subscribe",
		Types: []api.EventType{api.EventStepFailed},
	})
	assert.True(t, byType(matchRun))
	assert.False(t, byType(otherType))

	both := server.BuildFilter(&api.SubscribeRequest{
		Type:  "subscribe",
		RunID: "run-1",
		Types: []api.EventType{api.EventStepFailed},
	})
	assert.True(t, both(matchRun))
	assert.False(t, both(otherRun))
	assert.False(t, both(otherType))
}
