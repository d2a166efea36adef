package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	drawdomain "github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/gateway/usecase"
	"github.com/frankieli/draw_games/pkg/logger"
	drawgame "github.com/frankieli/draw_games/pkg/service/draw_game"
)

func init() {
	logger.Init(logger.Config{Level: "debug", Format: "console"})
}

type MockDrawGameService struct {
	bets  []*drawgame.PlaceBetReq
	reply *drawgame.PlaceBetRsp
}

func (m *MockDrawGameService) PlaceBet(ctx context.Context, req *drawgame.PlaceBetReq) (*drawgame.PlaceBetRsp, error) {
	m.bets = append(m.bets, req)
	if m.reply != nil {
		return m.reply, nil
	}
	return &drawgame.PlaceBetRsp{RoundID: "2505110001", BetID: "b-1", Mode: req.Mode}, nil
}

func (m *MockDrawGameService) GetState(ctx context.Context, req *drawgame.GetStateReq) (*drawdomain.RoundStateData, error) {
	if req.Mode == "7min" {
		return nil, drawdomain.ErrUnknownMode
	}
	return &drawdomain.RoundStateData{Mode: req.Mode, RoundID: "2505110001", TimeLeft: 42, Open: true}, nil
}

type MockSubscriptions struct {
	joined map[string][]drawdomain.ModeKey
}

func (m *MockSubscriptions) Subscribe(connID string, key drawdomain.ModeKey) error {
	if m.joined == nil {
		m.joined = make(map[string][]drawdomain.ModeKey)
	}
	m.joined[connID] = append(m.joined[connID], key)
	return nil
}

func (m *MockSubscriptions) Unsubscribe(connID string, key drawdomain.ModeKey) {
	keys := m.joined[connID]
	for i, k := range keys {
		if k == key {
			m.joined[connID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

type reply struct {
	Game    string          `json:"game"`
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, raw []byte) reply {
	t.Helper()
	var r reply
	require.NoError(t, json.Unmarshal(raw, &r))
	return r
}

func TestJoinModeSubscribesAndRepliesWithState(t *testing.T) {
	svc := &MockDrawGameService{}
	subs := &MockSubscriptions{}
	gateway := usecase.NewGatewayUseCase(svc, subs)

	raw, err := gateway.HandleMessage(context.Background(), "conn-1", 7,
		[]byte(`{"game":"k3","command":"join_mode","data":{"mode":"1min"}}`))
	require.NoError(t, err)

	r := decode(t, raw)
	assert.Equal(t, "k3", r.Game)
	assert.Equal(t, drawdomain.EventRoundState, r.Command)
	var state drawdomain.RoundStateData
	require.NoError(t, json.Unmarshal(r.Data, &state))
	assert.Equal(t, "2505110001", state.RoundID)
	assert.Equal(t, int64(42), state.TimeLeft)

	assert.Equal(t, []drawdomain.ModeKey{{Game: drawdomain.GameK3, Label: "1min"}}, subs.joined["conn-1"])
}

func TestJoinUnknownModeDoesNotSubscribe(t *testing.T) {
	subs := &MockSubscriptions{}
	gateway := usecase.NewGatewayUseCase(&MockDrawGameService{}, subs)

	_, err := gateway.HandleMessage(context.Background(), "conn-1", 7,
		[]byte(`{"game":"k3","command":"join_mode","data":{"mode":"7min"}}`))
	assert.ErrorIs(t, err, drawdomain.ErrUnknownMode)
	assert.Empty(t, subs.joined["conn-1"])
}

func TestLeaveModeHasNoReply(t *testing.T) {
	subs := &MockSubscriptions{}
	gateway := usecase.NewGatewayUseCase(&MockDrawGameService{}, subs)
	ctx := context.Background()

	_, err := gateway.HandleMessage(ctx, "conn-1", 7, []byte(`{"game":"wingo","command":"join_mode","data":{"mode":"30s"}}`))
	require.NoError(t, err)
	raw, err := gateway.HandleMessage(ctx, "conn-1", 7, []byte(`{"game":"wingo","command":"leave_mode","data":{"mode":"30s"}}`))
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Empty(t, subs.joined["conn-1"])
}

func TestPlaceBetForwardsConnectionAndUser(t *testing.T) {
	svc := &MockDrawGameService{}
	gateway := usecase.NewGatewayUseCase(svc, &MockSubscriptions{})

	raw, err := gateway.HandleMessage(context.Background(), "conn-9", 2001, []byte(`{
		"game": "5d",
		"command": "place_bet",
		"data": {"mode": "3min", "request_id": "r-1", "amount": "100", "selection": {"kind": "number", "position": "B", "value": "7"}}
	}`))
	require.NoError(t, err)

	r := decode(t, raw)
	assert.Equal(t, drawdomain.EventBetConfirmed, r.Command)
	var data drawdomain.BetConfirmedData
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, "2505110001", data.RoundID)
	assert.Equal(t, "b-1", data.BetID)

	require.Len(t, svc.bets, 1)
	got := svc.bets[0]
	assert.Equal(t, "5d", got.Game)
	assert.Equal(t, "3min", got.Mode)
	assert.Equal(t, int64(2001), got.UserID)
	assert.Equal(t, "conn-9", got.ConnRef)
	assert.Equal(t, "r-1", got.RequestID)
	assert.Equal(t, "100", got.Amount.String())
	assert.Equal(t, "B", got.Selection.Position)
}

func TestPlaceBetRejection(t *testing.T) {
	svc := &MockDrawGameService{reply: &drawgame.PlaceBetRsp{Mode: "1min", Reason: drawdomain.ReasonBettingClosed, Error: "betting closed"}}
	gateway := usecase.NewGatewayUseCase(svc, &MockSubscriptions{})

	raw, err := gateway.HandleMessage(context.Background(), "conn-1", 7,
		[]byte(`{"game":"k3","command":"place_bet","data":{"mode":"1min","amount":10,"selection":{"kind":"parity","value":"odd"}}}`))
	require.NoError(t, err)

	r := decode(t, raw)
	assert.Equal(t, drawdomain.EventBetRejected, r.Command)
	var data drawdomain.BetRejectedData
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, drawdomain.ReasonBettingClosed, data.Reason)
	assert.Equal(t, "1min", data.Mode)
}

func TestMalformedBetPayloadIsInvalidBetData(t *testing.T) {
	svc := &MockDrawGameService{}
	gateway := usecase.NewGatewayUseCase(svc, &MockSubscriptions{})

	raw, err := gateway.HandleMessage(context.Background(), "conn-1", 7,
		[]byte(`{"game":"k3","command":"place_bet","data":{"mode":"1min","amount":"lots"}}`))
	require.NoError(t, err)

	r := decode(t, raw)
	assert.Equal(t, drawdomain.EventBetRejected, r.Command)
	var data drawdomain.BetRejectedData
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, drawdomain.ReasonInvalidBetData, data.Reason)
	assert.Empty(t, svc.bets)
}

func TestEnvelopeErrors(t *testing.T) {
	gateway := usecase.NewGatewayUseCase(&MockDrawGameService{}, &MockSubscriptions{})
	cases := map[string]string{
		"not json":        `{`,
		"missing command": `{"game":"k3"}`,
		"unknown game":    `{"game":"color_game","command":"join_mode","data":{"mode":"1min"}}`,
		"unknown command": `{"game":"k3","command":"cash_out","data":{}}`,
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gateway.HandleMessage(context.Background(), "conn-1", 7, []byte(msg))
			assert.Error(t, err)
		})
	}
}
