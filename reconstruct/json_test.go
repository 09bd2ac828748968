package reconstruct

import (
	"context"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/AHartTN/hypersphere/pipelines"
	"github.com/AHartTN/hypersphere/store/memstore"
)

func TestJSONRoundTripScalarAndNested(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	input := []byte(`{"name":"ada","age":36,"active":true,"tags":["x","y","y"],"address":null,"nested":{"a":1,"b":[1,2,3]}}`)
	id, err := pipelines.JSONPipeline(ctx, s, input)
	require.NoError(t, err)

	out, err := JSON(ctx, s, id)
	require.NoError(t, err)

	var want, got map[string]any
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(input, &want))
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(out, &got))
	require.Equal(t, want, got)
}

func TestJSONRoundTripEmptyString(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	input := []byte(`{"empty":""}`)
	id, err := pipelines.JSONPipeline(ctx, s, input)
	require.NoError(t, err)

	out, err := JSON(ctx, s, id)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(out, &got))
	require.Equal(t, "", got["empty"])
}

func TestJSONPreservesKeyOrder(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	input := []byte(`{"z":1,"a":2,"m":3}`)
	id, err := pipelines.JSONPipeline(ctx, s, input)
	require.NoError(t, err)

	out, err := JSON(ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, `{"z":1,"a":2,"m":3}`, string(out))
}

func TestJSONRejectsEmptyInput(t *testing.T) {
	s := memstore.New()
	_, err := pipelines.JSONPipeline(context.Background(), s, nil)
	require.Error(t, err)
}
