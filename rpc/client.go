// Copyright (C) 2024  The zombie-bite Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package rpc is a minimal substrate JSON-RPC client, used to resolve the
// header of the block a bite is pinned at.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vgjson "github.com/zombienet/zombie-bite/libs/json"

	"github.com/cenkalti/backoff/v4"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

var ErrUnknownBlock = errors.New("block not found")

const defaultDialRetries = 5

// Header is a substrate block header as returned by chain_getHeader.
type Header struct {
	ParentHash     string          `json:"parentHash"`
	Number         string          `json:"number"`
	StateRoot      string          `json:"stateRoot"`
	ExtrinsicsRoot string          `json:"extrinsicsRoot"`
	Digest         json.RawMessage `json:"digest"`
}

type Client struct {
	c   *gethrpc.Client
	url string
}

// Dial connects to a ws(s) or http(s) endpoint, retrying with an
// exponential backoff.
func Dial(ctx context.Context, url string) (*Client, error) {
	var c *gethrpc.Client
	err := backoff.Retry(
		func() (err error) {
			c, err = gethrpc.DialContext(ctx, url)
			return err
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), defaultDialRetries),
			ctx,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to %s: %w", url, err)
	}
	return &Client{c: c, url: url}, nil
}

func (c *Client) Close() {
	c.c.Close()
}

// BlockHash returns the hash of block n of the canonical chain.
func (c *Client) BlockHash(ctx context.Context, n uint64) (string, error) {
	var hash *string
	if err := c.c.CallContext(ctx, &hash, "chain_getBlockHash", n); err != nil {
		return "", fmt.Errorf("chain_getBlockHash(%d) on %s: %w", n, c.url, err)
	}
	if hash == nil {
		return "", fmt.Errorf("block %d on %s: %w", n, c.url, ErrUnknownBlock)
	}
	return *hash, nil
}

func (c *Client) Header(ctx context.Context, hash string) (*Header, error) {
	var header *Header
	if err := c.c.CallContext(ctx, &header, "chain_getHeader", hash); err != nil {
		return nil, fmt.Errorf("chain_getHeader(%s) on %s: %w", hash, c.url, err)
	}
	if header == nil {
		return nil, fmt.Errorf("block %s on %s: %w", hash, c.url, ErrUnknownBlock)
	}
	return header, nil
}

func (c *Client) HeaderAt(ctx context.Context, n uint64) (*Header, error) {
	hash, err := c.BlockHash(ctx, n)
	if err != nil {
		return nil, err
	}
	return c.Header(ctx, hash)
}

// WriteHeaderAt resolves the header of block n on url and writes it to
// path, where the doppelganger node picks up its sync target.
func WriteHeaderAt(ctx context.Context, url string, n uint64, path string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	header, err := client.HeaderAt(ctx, n)
	if err != nil {
		return err
	}
	return vgjson.WriteFile(path, header)
}
