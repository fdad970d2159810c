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

package monitor

import (
	"github.com/zombienet/zombie-bite/network"
)

// Targets pairs the first relay chain node with every collator, the
// collators following the relay chain through it. The other nodes are
// checked on their own.
func Targets(nodes []*network.RunningNode) []Target {
	var (
		relay     []*network.RunningNode
		collators []Node
	)
	for _, n := range nodes {
		if n.ParaID != 0 {
			collators = append(collators, n)
			continue
		}
		relay = append(relay, n)
	}

	targets := make([]Target, 0, len(nodes))
	for i, n := range relay {
		t := Target{Node: n}
		if i == 0 {
			t.Dependents = collators
		}
		targets = append(targets, t)
	}
	for _, c := range collators {
		targets = append(targets, Target{Node: c})
	}
	return targets
}
