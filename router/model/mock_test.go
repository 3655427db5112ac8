package model_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overseerhq/overseer/router/model"
)

func TestMockChatModelCyclesThenRepeatsLastResponse(t *testing.T) {
	m := &model.MockChatModel{Responses: []model.ChatOut{{Text: "first"}, {Text: "second"}}}

	out, err := m.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", out.Text)

	out, err = m.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out.Text)

	out, err = m.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out.Text, "exhausted responses repeat the last one")

	assert.Len(t, m.Calls, 3)
}

func TestMockChatModelReturnsConfiguredErr(t *testing.T) {
	m := &model.MockChatModel{Err: errors.New("boom")}
	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	assert.EqualError(t, err, "boom")
	assert.Len(t, m.Calls, 1)
}

func TestMockChatModelRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &model.MockChatModel{Responses: []model.ChatOut{{Text: "unused"}}}
	_, err := m.Chat(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.Calls, "cancellation is checked before recording the call")
}
