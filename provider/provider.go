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

// Package provider runs the node processes of a local network.
package provider

import (
	"context"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/provider_mock.go -package mocks github.com/zombienet/zombie-bite/provider Namespace,Node

// SpawnOptions describes a long running node process.
type SpawnOptions struct {
	Name    string
	Command string
	Args    Args
	Env     map[string]string
}

// RunCommandOptions describes a one-shot command whose stdout is captured.
type RunCommandOptions struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Namespace groups the nodes of one network under a base directory.
type Namespace interface {
	ID() string
	BaseDir() string
	SpawnNode(ctx context.Context, opts SpawnOptions) (Node, error)
	RunCommand(ctx context.Context, opts RunCommandOptions) ([]byte, error)
	Destroy(ctx context.Context) error
}

type Node interface {
	Name() string
	// Dir is the node home, <base>/<name>.
	Dir() string
	LogPath() string
	Restart(ctx context.Context) error
	Destroy(ctx context.Context) error
}
