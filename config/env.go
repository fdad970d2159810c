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

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/zombienet/zombie-bite/provider"

	"github.com/jessevdk/go-flags"
)

const (
	defaultRustLogRC  = "babe=debug,grandpa=info,runtime=debug,consensus::common=debug,parachain=debug,parachain::gossip-support=info"
	defaultRustLogCol = "aura=debug,runtime=debug,cumulus-consensus=debug,consensus::common=debug,parachain::collation-generation=debug,parachain::collator-protocol=debug,parachain=debug,xcm=debug"
)

// Env holds every environment variable zombie-bite reads. It is resolved
// once at start up and passed down.
type Env struct {
	StatePruning string `long:"state-pruning" env:"ZOMBIE_BITE_STATE_PRUNING" default:"28801" description:"State pruning of sync and spawned nodes"`

	// RCPort is the legacy name of AlicePort and wins when both are set.
	RCPort    uint16 `long:"rc-port"    env:"ZOMBIE_BITE_RC_PORT"    description:"RPC port of alice"`
	AlicePort uint16 `long:"alice-port" env:"ZOMBIE_BITE_ALICE_PORT" description:"RPC port of alice"`
	BobPort   uint16 `long:"bob-port"   env:"ZOMBIE_BITE_BOB_PORT"   description:"RPC port of bob"`
	AHPort    uint16 `long:"ah-port"    env:"ZOMBIE_BITE_AH_PORT"    description:"RPC port of the collators"`

	RCExtraArgs string `long:"rc-extra-args" env:"ZOMBIE_BITE_RC_EXTRA_ARGS" description:"Comma separated extra arguments of the validators"`
	AHExtraArgs string `long:"ah-extra-args" env:"ZOMBIE_BITE_AH_EXTRA_ARGS" description:"Comma separated extra arguments of the collators"`

	// CIPath relocates the bite artifacts and makes the network definition
	// reference them relatively.
	CIPath string `long:"ci-path" env:"ZOMBIE_BITE_CI_PATH" description:"Directory the bite artifacts are moved to"`

	RustLogRC  string `long:"rust-log-rc"  env:"RUST_LOG_RC"  description:"Log filters of the validators"`
	RustLogCol string `long:"rust-log-col" env:"RUST_LOG_COL" description:"Log filters of the collators"`

	// Sudo is a 32 bytes hex account replacing alice as sudo and migration manager.
	Sudo string `long:"sudo" env:"ZOMBIE_SUDO" description:"Sudo account of the forked relay chain"`
	Dump string `long:"dump" env:"ZOMBIE_DUMP" description:"Ask the sync nodes to dump the overridden state"`
}

// portVars are checked by hand, go-flags drops env values it cannot convert.
var portVars = []string{
	"ZOMBIE_BITE_RC_PORT",
	"ZOMBIE_BITE_ALICE_PORT",
	"ZOMBIE_BITE_BOB_PORT",
	"ZOMBIE_BITE_AH_PORT",
}

// LoadEnv resolves the environment.
func LoadEnv() (Env, error) {
	for _, name := range portVars {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		if _, err := strconv.ParseUint(v, 10, 16); err != nil {
			return Env{}, fmt.Errorf("invalid environment: %s must be a port, got %q", name, v)
		}
	}

	var env Env
	if _, err := flags.NewParser(&env, flags.IgnoreUnknown).ParseArgs([]string{}); err != nil {
		return Env{}, fmt.Errorf("invalid environment: %w", err)
	}
	if env.RustLogRC == "" {
		env.RustLogRC = defaultRustLogRC
	}
	if env.RustLogCol == "" {
		env.RustLogCol = defaultRustLogCol
	}
	return env, nil
}

// AliceRPCPort returns the configured alice port, 0 when unset.
func (e Env) AliceRPCPort() uint16 {
	if e.RCPort != 0 {
		return e.RCPort
	}
	return e.AlicePort
}

func (e Env) DumpEnabled() bool {
	return e.Dump != ""
}

func (e Env) RelayExtraArgs() provider.Args {
	return provider.SplitExtraArgs(e.RCExtraArgs)
}

func (e Env) ParaExtraArgs() provider.Args {
	return provider.SplitExtraArgs(e.AHExtraArgs)
}
