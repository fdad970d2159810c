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

// Package steps manages the directories a bitten network moves through:
// bite, then spawn, post and after. Each step is spawned from the
// artifacts its predecessor left.
package steps

import (
	"strings"
)

type Step int

const (
	Bite Step = iota
	Spawn
	Post
	After
)

const debugSuffix = "-debug"

var stepNames = [...]string{
	Bite:  "bite",
	Spawn: "spawn",
	Post:  "post",
	After: "after",
}

// ParseStep is case insensitive. Anything unknown is Bite.
func ParseStep(s string) Step {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spawn":
		return Spawn
	case "post":
		return Post
	case "after":
		return After
	default:
		return Bite
	}
}

func (s Step) String() string {
	return stepNames[s]
}

// Dir is the directory of the step under the base path.
func (s Step) Dir() string {
	return stepNames[s]
}

// DebugDir keeps the previous content of the step directory.
func (s Step) DebugDir() string {
	return stepNames[s] + debugSuffix
}

// From is the step whose artifacts this step is spawned from.
func (s Step) From() (Step, bool) {
	if s == Bite {
		return Bite, false
	}
	return s - 1, true
}

func (s Step) Next() (Step, bool) {
	if s == After {
		return After, false
	}
	return s + 1, true
}
