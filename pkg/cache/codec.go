package cache

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Codec serializes values to and from the byte payloads kept in a [Store].
// Decode failures are reported with [ErrUnmarshal] and treated as misses by
// every cache in this package.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec is the default codec. JSON keeps payloads readable with
// redis-cli and compatible with the services that wrote them before.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// countCodec stores counters as bare decimal strings, the format written
// by plain `SET tasks:count 42`.
type countCodec struct{}

func (countCodec) Encode(n int64) ([]byte, error) {
	return strconv.AppendInt(nil, n, 10), nil
}

func (countCodec) Decode(data []byte) (int64, error) {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, errors.Join(ErrUnmarshal, err)
	}
	return n, nil
}
